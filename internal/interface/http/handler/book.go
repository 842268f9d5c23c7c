package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/booklend/internal/application/book"
	"github.com/xiebiao/booklend/internal/interface/http/dto"
	"github.com/xiebiao/booklend/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/booklend/pkg/errors"
	"github.com/xiebiao/booklend/pkg/response"
)

// BookHandler 图书HTTP处理器
type BookHandler struct {
	registerUseCase *appbook.RegisterBookUseCase
	borrowUseCase   *appbook.BorrowBookUseCase
	returnUseCase   *appbook.ReturnBookUseCase
	listUseCase     *appbook.ListBooksUseCase
	borrowedUseCase *appbook.ListBorrowedUseCase
}

// NewBookHandler 创建图书处理器
func NewBookHandler(
	registerUseCase *appbook.RegisterBookUseCase,
	borrowUseCase *appbook.BorrowBookUseCase,
	returnUseCase *appbook.ReturnBookUseCase,
	listUseCase *appbook.ListBooksUseCase,
	borrowedUseCase *appbook.ListBorrowedUseCase,
) *BookHandler {
	return &BookHandler{
		registerUseCase: registerUseCase,
		borrowUseCase:   borrowUseCase,
		returnUseCase:   returnUseCase,
		listUseCase:     listUseCase,
		borrowedUseCase: borrowedUseCase,
	}
}

// RegisterBook 登记新图书
// @Summary      登记图书
// @Description  登记一本新图书入馆藏,同一ISBN只能登记一次
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.RegisterBookRequest true "图书信息"
// @Success      200 {object} response.Response{data=dto.BookResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      401 {object} response.Response "未登录"
// @Failure      409 {object} response.Response "ISBN已存在"
// @Router       /api/v1/books [post]
func (h *BookHandler) RegisterBook(c *gin.Context) {
	var req dto.RegisterBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	result, err := h.registerUseCase.Execute(c.Request.Context(), appbook.RegisterBookRequest{
		ISBN:   req.ISBN,
		Title:  req.Title,
		Author: req.Author,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, toBookResponse(result))
}

// ListAvailable 查询可借图书列表
// @Summary      可借图书列表
// @Description  查询当前所有可借图书,优先读缓存
// @Tags         图书
// @Produce      json
// @Success      200 {object} response.Response{data=[]dto.BookResponse}
// @Router       /api/v1/books/available [get]
func (h *BookHandler) ListAvailable(c *gin.Context) {
	result, err := h.listUseCase.Available(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, toBookResponses(result))
}

// ListAll 查询全部图书
// @Summary      全部图书列表
// @Description  查询全部馆藏图书(含已借出)
// @Tags         图书
// @Produce      json
// @Success      200 {object} response.Response{data=[]dto.BookResponse}
// @Router       /api/v1/books [get]
func (h *BookHandler) ListAll(c *gin.Context) {
	result, err := h.listUseCase.All(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, toBookResponses(result))
}

// GetBook 查询图书详情
// @Summary      图书详情
// @Tags         图书
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response{data=dto.BookResponse}
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "无效的图书ID")
		return
	}

	result, err := h.listUseCase.Detail(c.Request.Context(), uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, toBookResponse(result))
}

// BorrowBook 借书
// @Summary      借书
// @Description  借出一本可借图书,并发借阅时只有一个请求成功
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.LendingRequest true "借书请求"
// @Success      200 {object} response.Response{data=dto.LendingResponse}
// @Failure      400 {object} response.Response "图书不可借/重复借阅"
// @Failure      401 {object} response.Response "未登录"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/borrow [post]
func (h *BookHandler) BorrowBook(c *gin.Context) {
	var req dto.LendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	userID := middleware.MustGetUserID(c)

	result, err := h.borrowUseCase.Execute(c.Request.Context(), userID, req.BookID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.LendingResponse{
		Message: result.Message,
		LoanID:  result.LoanID,
		BookID:  result.BookID,
		Date:    result.BorrowDate,
	})
}

// ReturnBook 还书
// @Summary      还书
// @Description  归还本人借出的图书
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.LendingRequest true "还书请求"
// @Success      200 {object} response.Response{data=dto.LendingResponse}
// @Failure      400 {object} response.Response "无活跃借阅记录"
// @Failure      401 {object} response.Response "未登录"
// @Router       /api/v1/books/return [post]
func (h *BookHandler) ReturnBook(c *gin.Context) {
	var req dto.LendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	userID := middleware.MustGetUserID(c)

	result, err := h.returnUseCase.Execute(c.Request.Context(), userID, req.BookID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.LendingResponse{
		Message: result.Message,
		LoanID:  result.LoanID,
		BookID:  result.BookID,
		Date:    result.ReturnDate,
	})
}

// ListBorrowed 查询本人借阅列表
// @Summary      我的借阅
// @Description  查询当前登录用户借出未还的全部图书
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=[]dto.BookResponse}
// @Failure      401 {object} response.Response "未登录"
// @Router       /api/v1/books/borrowed [get]
func (h *BookHandler) ListBorrowed(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	result, err := h.borrowedUseCase.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, toBookResponses(result))
}

// =========================================
// DTO转换
// =========================================

func toBookResponse(b *appbook.BookDTO) *dto.BookResponse {
	return &dto.BookResponse{
		ID:          b.ID,
		ISBN:        b.ISBN,
		Title:       b.Title,
		Author:      b.Author,
		IsAvailable: b.IsAvailable,
		CreatedAt:   b.CreatedAt,
	}
}

func toBookResponses(books []*appbook.BookDTO) []*dto.BookResponse {
	result := make([]*dto.BookResponse, len(books))
	for i, b := range books {
		result[i] = toBookResponse(b)
	}
	return result
}
