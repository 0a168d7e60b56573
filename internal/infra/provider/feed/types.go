package feed

import "channel-insight-service/internal/domain"

// Response is one page of a channel feed.
//
// Video rows are kept untyped so field-level problems surface as data
// quality warnings during normalization instead of failing the decode.
type Response struct {
	Channel    ChannelItem        `json:"channel"`
	Videos     []domain.RawRecord `json:"videos"`
	Pagination Pagination         `json:"pagination"`
}

// ChannelItem is channel metadata as served by the feed.
type ChannelItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subscribers int64  `json:"subscribers"`
	TotalViews  int64  `json:"total_views"`
	VideoCount  int64  `json:"video_count"`
}

// Pagination holds pagination info.
type Pagination struct {
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// HasMore reports whether pages after this one exist.
func (p Pagination) HasMore() bool {
	return p.PerPage > 0 && p.Page*p.PerPage < p.Total
}

// ToDomain converts ChannelItem to domain.ChannelInfo.
func (c ChannelItem) ToDomain() domain.ChannelInfo {
	return domain.ChannelInfo{
		ID:          c.ID,
		Title:       c.Title,
		Subscribers: c.Subscribers,
		TotalViews:  c.TotalViews,
		VideoCount:  c.VideoCount,
	}
}
