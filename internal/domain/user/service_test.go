package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeRepo 内存实现，仅供领域服务测试
type fakeRepo struct {
	byEmail map[string]*User
	nextID  uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byEmail: make(map[string]*User), nextID: 1}
}

func (f *fakeRepo) Create(_ context.Context, u *User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return ErrEmailDuplicate
	}
	u.ID = f.nextID
	f.nextID++
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id uint) (*User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (f *fakeRepo) Update(_ context.Context, u *User) error {
	f.byEmail[u.Email] = u
	return nil
}

func TestService_Register(t *testing.T) {
	t.Run("注册成功", func(t *testing.T) {
		svc := NewService(newFakeRepo())

		u, err := svc.Register(context.Background(), "张三", "zhangsan@example.com", "secret123", "北京市海淀区")
		require.NoError(t, err)
		assert.NotZero(t, u.ID)
		assert.Equal(t, "zhangsan@example.com", u.Email)
		assert.False(t, u.Verified)

		// 密码必须是bcrypt哈希，不能是明文
		assert.NotEqual(t, "secret123", u.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("secret123")))
	})

	t.Run("邮箱格式非法", func(t *testing.T) {
		svc := NewService(newFakeRepo())

		_, err := svc.Register(context.Background(), "张三", "not-an-email", "secret123", "")
		assert.Equal(t, ErrInvalidEmail, err)
	})

	t.Run("密码过短", func(t *testing.T) {
		svc := NewService(newFakeRepo())

		_, err := svc.Register(context.Background(), "张三", "zhangsan@example.com", "123", "")
		assert.Equal(t, ErrWeakPassword, err)
	})

	t.Run("邮箱重复", func(t *testing.T) {
		svc := NewService(newFakeRepo())

		_, err := svc.Register(context.Background(), "张三", "zhangsan@example.com", "secret123", "")
		require.NoError(t, err)

		_, err = svc.Register(context.Background(), "李四", "zhangsan@example.com", "secret456", "")
		assert.Equal(t, ErrEmailDuplicate, err)
	})
}

func TestService_Authenticate(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.Register(context.Background(), "张三", "zhangsan@example.com", "secret123", "")
	require.NoError(t, err)

	t.Run("密码正确", func(t *testing.T) {
		u, err := svc.Authenticate(context.Background(), "zhangsan@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "张三", u.Name)
	})

	t.Run("密码错误", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "zhangsan@example.com", "wrong")
		assert.Equal(t, ErrInvalidCredentials, err)
	})

	t.Run("用户不存在时返回同一错误", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "nobody@example.com", "secret123")
		assert.Equal(t, ErrInvalidCredentials, err)
	})
}

func TestService_ChangePassword(t *testing.T) {
	newSvc := func(t *testing.T) (Service, *User) {
		t.Helper()
		svc := NewService(newFakeRepo())
		u, err := svc.Register(context.Background(), "张三", "zhangsan@example.com", "secret123", "")
		require.NoError(t, err)
		return svc, u
	}

	t.Run("修改成功后旧密码失效", func(t *testing.T) {
		svc, u := newSvc(t)

		err := svc.ChangePassword(context.Background(), u.ID, "secret123", "newsecret456")
		require.NoError(t, err)

		_, err = svc.Authenticate(context.Background(), "zhangsan@example.com", "secret123")
		assert.Equal(t, ErrInvalidCredentials, err)

		authed, err := svc.Authenticate(context.Background(), "zhangsan@example.com", "newsecret456")
		require.NoError(t, err)
		assert.Equal(t, u.ID, authed.ID)
	})

	t.Run("旧密码错误被拒绝", func(t *testing.T) {
		svc, u := newSvc(t)

		err := svc.ChangePassword(context.Background(), u.ID, "wrong", "newsecret456")
		assert.Equal(t, ErrInvalidCredentials, err)
	})

	t.Run("新密码过短被拒绝", func(t *testing.T) {
		svc, u := newSvc(t)

		err := svc.ChangePassword(context.Background(), u.ID, "secret123", "123")
		assert.Equal(t, ErrWeakPassword, err)
	})

	t.Run("用户不存在", func(t *testing.T) {
		svc, _ := newSvc(t)

		err := svc.ChangePassword(context.Background(), 999, "secret123", "newsecret456")
		assert.Equal(t, ErrUserNotFound, err)
	})
}
