package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	problem "github.com/vitrine-motors/vitrine-api/pkg/catalog_api/helpers/problem"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/models"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/repositories"
	"golang.org/x/crypto/bcrypt"
)

const sessionTTL = 30 * 24 * time.Hour

// AccountService handles admin authentication and self-service profile
// updates. Sessions are stateless HS256 tokens carrying the account id.
type AccountService struct {
	repo   repositories.AdminUserRepository
	secret []byte
}

func NewAccountService(repo repositories.AdminUserRepository, secret string) *AccountService {
	return &AccountService{repo: repo, secret: []byte(secret)}
}

// Login verifies the credentials and issues a session token. Bad username
// and bad password are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, in *models.LoginInput) (*models.LoginResponse, error) {
	u, err := s.repo.FindByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		return nil, problem.NewInternalServerError("Erro ao autenticar: " + err.Error())
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return nil, problem.NewUnauthorized("Credenciais inválidas.")
	}

	token, err := s.issueToken(u.Id)
	if err != nil {
		return nil, problem.NewInternalServerError("Erro ao emitir sessão: " + err.Error())
	}

	name := u.Username
	if u.Name != nil && *u.Name != "" {
		name = *u.Name
	}
	return &models.LoginResponse{Token: token, Name: name}, nil
}

func (s *AccountService) issueToken(adminID int) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(adminID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *AccountService) Profile(ctx context.Context, adminID int) (*models.AdminProfile, error) {
	u, err := s.repo.FindByID(ctx, adminID)
	if err != nil {
		return nil, problem.NewInternalServerError("Erro ao carregar perfil: " + err.Error())
	}
	if u == nil {
		return nil, problem.NewUnauthorized("Não autorizado")
	}
	return &models.AdminProfile{Id: u.Id, Username: u.Username, Name: u.Name}, nil
}

// UpdateProfile applies the submitted subset of fields. A username change is
// checked for uniqueness; a password change requires the current password.
// An empty payload is a successful no-op.
func (s *AccountService) UpdateProfile(ctx context.Context, adminID int, in *models.UpdateProfileInput) error {
	u, err := s.repo.FindByID(ctx, adminID)
	if err != nil {
		return problem.NewInternalServerError("Erro ao carregar perfil: " + err.Error())
	}
	if u == nil {
		return problem.NewUnauthorized("Não autorizado")
	}

	fields := map[string]interface{}{}

	if in.Name != nil {
		fields["name"] = nullIfBlank(*in.Name)
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return problem.NewBadRequest("username", "Informe um nome de usuário válido.")
		}
		if username != u.Username {
			taken, err := s.repo.UsernameTaken(ctx, username, adminID)
			if err != nil {
				return problem.NewInternalServerError("Erro ao validar usuário: " + err.Error())
			}
			if taken {
				return problem.NewConflict("username", "Este nome de usuário já está em uso.")
			}
			fields["username"] = username
		}
	}

	if in.NewPassword != "" {
		if in.CurrentPassword == "" {
			return problem.NewBadRequest("currentPassword", "Informe a senha atual.")
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.CurrentPassword)) != nil {
			return problem.NewBadRequest("currentPassword", "Senha atual incorreta.")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return problem.NewInternalServerError("Erro ao gerar hash da senha: " + err.Error())
		}
		fields["password_hash"] = string(hash)
	}

	if len(fields) == 0 {
		return nil
	}
	if err := s.repo.UpdateUser(ctx, adminID, fields); err != nil {
		return problem.NewInternalServerError("Erro ao atualizar perfil: " + err.Error())
	}
	return nil
}
