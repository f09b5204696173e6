package service

import (
	"github.com/dom/postboard/internal/config"
	"github.com/dom/postboard/internal/repository"
)

type Services struct {
	Auth *AuthService
	Post *PostService
}

func NewServices(repos *repository.Repositories, cfg *config.Config) *Services {
	return &Services{
		Auth: NewAuthService(repos.User, cfg),
		Post: NewPostService(repos.Post),
	}
}
