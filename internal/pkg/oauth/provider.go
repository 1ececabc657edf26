package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"devfolio/internal/dto"
	"devfolio/internal/pkg/config"
	"devfolio/pkg/constants"
)

// Provider OAuth提供方
// FetchProfile 完成授权码换取Token并拉取外部身份档案
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	FetchProfile(ctx context.Context, code string) (*dto.ProviderProfile, error)
}

// Registry 按提供方名称索引的Provider集合
type Registry map[string]Provider

// NewRegistry 根据配置构建启用的OAuth提供方
// 回调地址固定为 <baseURL>/api/v1/auth/oauth/<provider>/callback
func NewRegistry(cfgs map[string]config.OAuthProvider, baseURL string) Registry {
	registry := make(Registry)

	for name, cfg := range cfgs {
		if !cfg.Enabled {
			continue
		}

		callback := fmt.Sprintf("%s/api/v1/auth/oauth/%s/callback", strings.TrimSuffix(baseURL, "/"), name)

		switch name {
		case constants.ProviderGitHub:
			registry[name] = &githubProvider{
				config: &oauth2.Config{
					ClientID:     cfg.ClientID,
					ClientSecret: cfg.ClientSecret,
					RedirectURL:  callback,
					Scopes:       []string{"read:user", "user:email"},
					Endpoint:     github.Endpoint,
				},
			}
		case constants.ProviderGoogle:
			registry[name] = &googleProvider{
				config: &oauth2.Config{
					ClientID:     cfg.ClientID,
					ClientSecret: cfg.ClientSecret,
					RedirectURL:  callback,
					Scopes:       []string{"openid", "email", "profile"},
					Endpoint:     google.Endpoint,
				},
			}
		}
	}

	return registry
}

// Get 按名称取提供方
func (r Registry) Get(name string) (Provider, bool) {
	p, ok := r[name]
	return p, ok
}

// fetchJSON 用授权后的HTTP客户端拉取档案接口，返回原始JSON对象
func fetchJSON(ctx context.Context, cfg *oauth2.Config, code, url string) (map[string]interface{}, error) {
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("授权码换取Token失败: %w", err)
	}

	client := cfg.Client(ctx, token)

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("获取用户档案失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("获取用户档案失败 (状态码: %d)", resp.StatusCode)
	}

	var profile map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("解析用户档案失败: %w", err)
	}

	return profile, nil
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// githubProvider GitHub授权码流程
type githubProvider struct {
	config *oauth2.Config
}

func (p *githubProvider) Name() string {
	return constants.ProviderGitHub
}

func (p *githubProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (p *githubProvider) FetchProfile(ctx context.Context, code string) (*dto.ProviderProfile, error) {
	raw, err := fetchJSON(ctx, p.config, code, "https://api.github.com/user")
	if err != nil {
		return nil, err
	}

	return &dto.ProviderProfile{
		Provider:                constants.ProviderGitHub,
		ProviderIdentifierField: "id",
		ProviderData:            raw,
		Username:                stringField(raw, "login"),
		Email:                   stringField(raw, "email"),
		DisplayName:             stringField(raw, "name"),
		ProfileImageURL:         stringField(raw, "avatar_url"),
	}, nil
}

// googleProvider Google授权码流程
type googleProvider struct {
	config *oauth2.Config
}

func (p *googleProvider) Name() string {
	return constants.ProviderGoogle
}

func (p *googleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (p *googleProvider) FetchProfile(ctx context.Context, code string) (*dto.ProviderProfile, error) {
	raw, err := fetchJSON(ctx, p.config, code, "https://www.googleapis.com/oauth2/v3/userinfo")
	if err != nil {
		return nil, err
	}

	// Google未返回独立用户名，由身份解析按邮箱前缀派生
	return &dto.ProviderProfile{
		Provider:                constants.ProviderGoogle,
		ProviderIdentifierField: "sub",
		ProviderData:            raw,
		Email:                   stringField(raw, "email"),
		DisplayName:             stringField(raw, "name"),
		ProfileImageURL:         stringField(raw, "picture"),
	}, nil
}
