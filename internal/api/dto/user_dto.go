package dto

// ProfileData 用户主页数据
type ProfileData struct {
	User   UserInfo    `json:"user"`
	Videos []VideoInfo `json:"videos"`
	Total  int         `json:"total"`
}
