package dto

// ProviderProfile OAuth提供方回调返回的外部身份档案
// ProviderData[ProviderIdentifierField] 是提供方分配的稳定外部ID
type ProviderProfile struct {
	Provider                string                 `json:"provider"`
	ProviderIdentifierField string                 `json:"provider_identifier_field"`
	ProviderData            map[string]interface{} `json:"provider_data"`
	Username                string                 `json:"username"`
	Email                   string                 `json:"email"`
	DisplayName             string                 `json:"display_name"`
	ProfileImageURL         string                 `json:"profile_image_url"`
}

// IdentifierValue 取档案中的稳定外部ID
func (p *ProviderProfile) IdentifierValue() interface{} {
	if p.ProviderData == nil {
		return nil
	}
	return p.ProviderData[p.ProviderIdentifierField]
}
