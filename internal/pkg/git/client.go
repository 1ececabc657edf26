package git

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://api.github.com"
	defaultUserAgent = "devfolio"
	defaultPerPage   = 100
)

// ClientConfig 客户端配置
type ClientConfig struct {
	BaseURL   string // API地址，默认 https://api.github.com
	UserAgent string // 远端API要求携带User-Agent
	Token     string // 可选的访问Token，未配置时走匿名限额
}

// Client GitHub API客户端
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// RepositoryInfo 仓库信息
type RepositoryInfo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	GitURL      string `json:"git_url"`
	CloneURL    string `json:"clone_url"`
	Size        int    `json:"size"`
}

// NewClient 创建GitHub API客户端
func NewClient(config *ClientConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListUserRepositories 获取用户的仓库列表
// 只取远端返回的第一页
func (c *Client) ListUserRepositories(username string) ([]RepositoryInfo, error) {
	url := fmt.Sprintf("%s/users/%s/repos?per_page=%d",
		strings.TrimSuffix(c.config.BaseURL, "/"), username, defaultPerPage)

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}

	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("请求失败 (状态码: %d): %s", resp.StatusCode, string(body))
	}

	var repos []RepositoryInfo
	if err := json.NewDecoder(resp.Body).Decode(&repos); err != nil {
		return nil, fmt.Errorf("解析仓库列表失败: %w", err)
	}

	return repos, nil
}

// setHeaders 设置请求头
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.config.UserAgent)
	if c.config.Token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("token %s", c.config.Token))
	}
}
