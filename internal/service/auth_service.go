package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"pdf-chat-be/internal/dto"
	"pdf-chat-be/internal/entity"
	"pdf-chat-be/internal/pkg/logger"
	"pdf-chat-be/internal/pkg/serverutils"
	"pdf-chat-be/internal/repository/specification"
	"pdf-chat-be/internal/repository/unitofwork"
	"pdf-chat-be/pkg/events"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

var (
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Profile(ctx context.Context, userId uuid.UUID) (*dto.UserDTO, error)
	IssueToken(user *entity.User) (string, error)
}

type authService struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher IEventPublisher
	jwtSecret      string
	jwtExpiresIn   time.Duration
	logger         logger.ILogger
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher IEventPublisher,
	jwtSecret string,
	jwtExpiresIn time.Duration,
	logger logger.ILogger,
) IAuthService {
	return &authService{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		jwtSecret:      jwtSecret,
		jwtExpiresIn:   jwtExpiresIn,
		logger:         logger,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	user := &entity.User{
		Id:           uuid.New(),
		Email:        email,
		FullName:     strings.TrimSpace(req.Name),
		PasswordHash: &hashStr,
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("AUTH", "User registered", map[string]interface{}{"user_id": user.Id.String()})
	publishEvent(ctx, s.eventPublisher, s.logger, events.UserRegistered, map[string]interface{}{
		"user_id":  user.Id.String(),
		"provider": "password",
	})

	return &dto.AuthResponse{User: toUserDTO(user), Token: token}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: normalizeEmail(req.Email)})
	if err != nil {
		return nil, err
	}
	// Google-only accounts have no password and fail the same way as a wrong one.
	if user == nil || !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.eventPublisher, s.logger, events.UserLogin, map[string]interface{}{
		"user_id": user.Id.String(),
		"time":    time.Now().Format(time.RFC822),
	})

	return &dto.AuthResponse{User: toUserDTO(user), Token: token}, nil
}

func (s *authService) Profile(ctx context.Context, userId uuid.UUID) (*dto.UserDTO, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	res := toUserDTO(user)
	return &res, nil
}

func (s *authService) IssueToken(user *entity.User) (string, error) {
	return serverutils.IssueToken(user.Id, user.Email, s.jwtSecret, s.jwtExpiresIn)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserDTO(user *entity.User) dto.UserDTO {
	res := dto.UserDTO{
		Id:        user.Id,
		Email:     user.Email,
		Name:      user.FullName,
		CreatedAt: user.CreatedAt,
	}
	if user.AvatarURL != nil {
		res.AvatarURL = *user.AvatarURL
	}
	return res
}
