package dto

type UpdateProfileRequest struct {
	DisplayName    string   `json:"display_name" validate:"max=60"`
	Bio            string   `json:"bio" validate:"max=500"`
	AvatarURL      string   `json:"avatar_url" validate:"omitempty,url"`
	FavoriteGenres []string `json:"favorite_genres" validate:"max=20,dive,min=1,max=40"`
}

type CreatePostRequest struct {
	Content   string   `json:"content" validate:"required,max=2000"`
	AlbumID   string   `json:"album_id" validate:"omitempty,mongodb"`
	ImageURLs []string `json:"image_urls" validate:"max=4,dive,url"`
	Tags      []string `json:"tags" validate:"max=10,dive,min=1,max=40"`
}

type EditPostRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type CommentRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

type CreateScratchRequest struct {
	AlbumID string   `json:"album_id" validate:"required,mongodb"`
	Rating  int      `json:"rating" validate:"min=0,max=10"`
	Review  string   `json:"review" validate:"max=5000"`
	Tags    []string `json:"tags" validate:"max=10,dive,min=1,max=40"`
}

type UpdateScratchRequest struct {
	Rating *int    `json:"rating" validate:"omitempty,min=0,max=10"`
	Review *string `json:"review" validate:"omitempty,max=5000"`
}

type CreatePlaylistRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=1000"`
	IsPublic    bool     `json:"is_public"`
	Tags        []string `json:"tags" validate:"max=10,dive,min=1,max=40"`
}

type UpdatePlaylistRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
	IsPublic    *bool  `json:"is_public"`
}

type AddTrackRequest struct {
	TrackID string `json:"track_id" validate:"required,mongodb"`
}

type MoveTrackRequest struct {
	Position int `json:"position" validate:"required,min=1"`
}

type ImportAlbumRequest struct {
	ExternalID string `json:"external_id" validate:"required,max=200"`
}

type CreateBadgeRequest struct {
	Name        string `json:"name" validate:"required,max=60"`
	Description string `json:"description" validate:"max=500"`
	Tier        string `json:"tier" validate:"omitempty,oneof=bronze silver gold"`
	IconURL     string `json:"icon_url" validate:"omitempty,url"`
}

type AwardBadgeRequest struct {
	UserID  string `json:"user_id" validate:"required,mongodb"`
	BadgeID string `json:"badge_id" validate:"required,mongodb"`
}
