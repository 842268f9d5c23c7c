package dto

// RegisterBookRequest HTTP图书登记请求
type RegisterBookRequest struct {
	ISBN   string `json:"isbn" binding:"required" example:"9787115428028"`
	Title  string `json:"title" binding:"required,max=200" example:"Go程序设计语言"`
	Author string `json:"author" binding:"required,max=100" example:"Alan A. A. Donovan"`
}

// BookResponse HTTP图书响应
type BookResponse struct {
	ID          uint   `json:"id" example:"1"`
	ISBN        string `json:"isbn" example:"9787115428028"`
	Title       string `json:"title" example:"Go程序设计语言"`
	Author      string `json:"author" example:"Alan A. A. Donovan"`
	IsAvailable bool   `json:"is_available" example:"true"`
	CreatedAt   string `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// LendingRequest HTTP借书/还书请求
type LendingRequest struct {
	BookID uint `json:"book_id" binding:"required" example:"1"`
}

// LendingResponse HTTP借书/还书响应
type LendingResponse struct {
	Message string `json:"message" example:"Book borrowed successfully"`
	LoanID  uint   `json:"loan_id" example:"1"`
	BookID  uint   `json:"book_id" example:"1"`
	Date    string `json:"date" example:"2024-01-15T10:30:00Z"`
}
