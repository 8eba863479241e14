package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"pdf-chat-be/internal/dto"
	"pdf-chat-be/internal/entity"
	"pdf-chat-be/internal/pkg/logger"
	"pdf-chat-be/internal/repository/specification"
	"pdf-chat-be/internal/repository/unitofwork"
	"pdf-chat-be/pkg/events"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

var (
	ErrUnsupportedProvider   = errors.New("unsupported provider")
	ErrInvalidGoogleToken    = errors.New("invalid google token")
	ErrGoogleEmailUnverified = errors.New("email not verified with google")
	ErrInvalidOAuthState     = errors.New("invalid or expired oauth state")
)

// GoogleProfile is the identity Google vouches for, from either login flow.
type GoogleProfile struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// IDTokenValidator matches idtoken.Validate.
type IDTokenValidator func(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)

type IOAuthService interface {
	GetLoginURL(provider string) (*dto.GoogleLoginURLResponse, error)
	HandleCallback(ctx context.Context, provider, state, code string) (*dto.AuthResponse, error)
	LoginWithIDToken(ctx context.Context, idToken string) (*dto.AuthResponse, error)
	// UpsertGoogleUser links or creates the account and reports whether it was created.
	UpsertGoogleUser(ctx context.Context, profile GoogleProfile) (*entity.User, bool, error)
}

type oauthService struct {
	uowFactory     unitofwork.RepositoryFactory
	authService    IAuthService
	eventPublisher IEventPublisher
	googleConf     *oauth2.Config
	validate       IDTokenValidator
	states         *cache.Cache
	logger         logger.ILogger
}

func NewOAuthService(
	uowFactory unitofwork.RepositoryFactory,
	authService IAuthService,
	eventPublisher IEventPublisher,
	clientID, clientSecret, redirectURL string,
	validate IDTokenValidator,
	logger logger.ILogger,
) IOAuthService {
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
	if validate == nil {
		validate = idtoken.Validate
	}

	return &oauthService{
		uowFactory:     uowFactory,
		authService:    authService,
		eventPublisher: eventPublisher,
		googleConf:     conf,
		validate:       validate,
		states:         cache.New(10*time.Minute, 15*time.Minute),
		logger:         logger,
	}
}

func (s *oauthService) GetLoginURL(provider string) (*dto.GoogleLoginURLResponse, error) {
	if provider != "google" {
		return nil, ErrUnsupportedProvider
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	state := base64.RawURLEncoding.EncodeToString(b)
	s.states.SetDefault(state, true)

	return &dto.GoogleLoginURLResponse{
		URL:   s.googleConf.AuthCodeURL(state),
		State: state,
	}, nil
}

func (s *oauthService) HandleCallback(ctx context.Context, provider, state, code string) (*dto.AuthResponse, error) {
	if provider != "google" {
		return nil, ErrUnsupportedProvider
	}
	if _, ok := s.states.Get(state); !ok {
		return nil, ErrInvalidOAuthState
	}
	s.states.Delete(state)

	token, err := s.googleConf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	profile, err := s.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	return s.login(ctx, *profile)
}

func (s *oauthService) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*GoogleProfile, error) {
	resp, err := s.googleConf.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed getting user info: status %d", resp.StatusCode)
	}

	var info struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}

	return &GoogleProfile{
		Subject:       info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          info.Name,
		Picture:       info.Picture,
	}, nil
}

func (s *oauthService) LoginWithIDToken(ctx context.Context, idToken string) (*dto.AuthResponse, error) {
	payload, err := s.validate(ctx, idToken, s.googleConf.ClientID)
	if err != nil {
		s.logger.Warn("OAUTH", "Google token verification failed", map[string]interface{}{"error": err.Error()})
		return nil, ErrInvalidGoogleToken
	}

	return s.login(ctx, profileFromPayload(payload))
}

func profileFromPayload(payload *idtoken.Payload) GoogleProfile {
	claim := func(name string) string {
		v, _ := payload.Claims[name].(string)
		return v
	}
	verified, _ := payload.Claims["email_verified"].(bool)

	return GoogleProfile{
		Subject:       payload.Subject,
		Email:         claim("email"),
		EmailVerified: verified,
		Name:          claim("name"),
		Picture:       claim("picture"),
	}
}

func (s *oauthService) login(ctx context.Context, profile GoogleProfile) (*dto.AuthResponse, error) {
	if !profile.EmailVerified {
		return nil, ErrGoogleEmailUnverified
	}

	user, created, err := s.UpsertGoogleUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	token, err := s.authService.IssueToken(user)
	if err != nil {
		return nil, err
	}

	eventType := events.UserLogin
	if created {
		eventType = events.UserRegistered
	}
	publishEvent(ctx, s.eventPublisher, s.logger, eventType, map[string]interface{}{
		"user_id":  user.Id.String(),
		"provider": "google",
	})

	return &dto.AuthResponse{
		User:      toUserDTO(user),
		Token:     token,
		IsNewUser: &created,
	}, nil
}

func (s *oauthService) UpsertGoogleUser(ctx context.Context, profile GoogleProfile) (*entity.User, bool, error) {
	if profile.Subject == "" || profile.Email == "" {
		return nil, false, ErrInvalidGoogleToken
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, false, err
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().FindOne(ctx, specification.ByGoogleID{GoogleID: profile.Subject})
	if err != nil {
		return nil, false, err
	}
	if user != nil {
		return user, false, nil
	}

	email := normalizeEmail(profile.Email)
	user, err = uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, false, err
	}

	if user != nil {
		user.GoogleId = &profile.Subject
		user.EmailVerified = true
		if profile.Picture != "" {
			user.AvatarURL = &profile.Picture
		}
		if err := uow.UserRepository().Update(ctx, user); err != nil {
			return nil, false, err
		}
		if err := uow.Commit(); err != nil {
			return nil, false, err
		}
		s.logger.Info("OAUTH", "Linked Google account to existing user", map[string]interface{}{"user_id": user.Id.String()})
		return user, false, nil
	}

	user = &entity.User{
		Id:            uuid.New(),
		Email:         email,
		FullName:      profile.Name,
		GoogleId:      &profile.Subject,
		EmailVerified: true,
	}
	if profile.Picture != "" {
		user.AvatarURL = &profile.Picture
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, false, err
	}
	if err := uow.Commit(); err != nil {
		return nil, false, err
	}

	s.logger.Info("OAUTH", "Created user from Google account", map[string]interface{}{"user_id": user.Id.String()})
	return user, true, nil
}
