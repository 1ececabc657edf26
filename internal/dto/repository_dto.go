package dto

// RepositoryResponse 代码库镜像响应
type RepositoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// RepositoryListQuery 代码库列表查询
type RepositoryListQuery struct {
	PageQuery
	Keyword string `form:"keyword"` // 可选：名称模糊匹配
}
