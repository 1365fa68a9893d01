package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"friendhub/internal/api/dto"
	"friendhub/internal/model"
	"friendhub/internal/repository"
	"friendhub/internal/session"
	"friendhub/pkg/logger"
	"friendhub/pkg/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("用户不存在")
	ErrUsernameExists    = errors.New("用户名已被占用")
	ErrInvalidCredential = errors.New("用户名或密码错误")
	ErrUnauthenticated   = errors.New("请先登录")
)

const maxUsernameLen = 80

type AuthService struct {
	userRepo *repository.UserRepository
	sessions session.Store
	tokens   *utils.TokenManager
}

func NewAuthService(userRepo *repository.UserRepository, sessions session.Store, tokens *utils.TokenManager) *AuthService {
	return &AuthService{userRepo: userRepo, sessions: sessions, tokens: tokens}
}

// Register 用户注册
func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.UserInfo, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, newValidationError("username", "用户名不能为空")
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return nil, newValidationError("username", "用户名不能超过 80 个字符")
	}
	if req.Password == "" {
		return nil, newValidationError("password", "密码不能为空")
	}

	exists, err := s.userRepo.ExistsByUsername(username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameExists
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hashedPassword,
	}
	if err := s.userRepo.Create(user); err != nil {
		// 并发注册时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameExists
		}
		return nil, err
	}

	logger.Info("User registered", zap.String("username", username))
	return toUserInfo(user), nil
}

// Login 校验用户名密码，创建会话并返回签名令牌
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenData, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, ErrInvalidCredential
	}

	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}

	if !utils.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredential
	}

	sess := session.New(user.Username, s.tokens.TTL())
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(sess.ID, sess.Username, sess.ExpiresAt)
	if err != nil {
		_ = s.sessions.Delete(ctx, sess.ID)
		return nil, err
	}

	logger.Info("User logged in", zap.String("username", user.Username))

	return &dto.TokenData{
		Token:     token,
		TokenType: "bearer",
		ExpiresIn: int(s.tokens.TTL().Seconds()),
		ExpiresAt: sess.ExpiresAt,
		User:      *toUserInfo(user),
	}, nil
}

// Authenticate 校验令牌并确认会话仍在会话表中
func (s *AuthService) Authenticate(ctx context.Context, token string) (*session.Session, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	sess, err := s.sessions.Get(ctx, claims.SessionID())
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if sess.Username != claims.Username {
		return nil, ErrUnauthenticated
	}
	return sess, nil
}

// Logout 删除会话，会话已不存在时视为成功
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		return err
	}
	return nil
}

// GetCurrentUser 根据用户名获取用户信息
func (s *AuthService) GetCurrentUser(username string) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toUserInfo(user), nil
}

func toUserInfo(user *model.User) *dto.UserInfo {
	return &dto.UserInfo{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}
}
