package youtube

import (
	"math"

	"google.golang.org/api/youtube/v3"

	"channel-insight-service/internal/domain"
)

func channelInfo(ch *youtube.Channel) domain.ChannelInfo {
	info := domain.ChannelInfo{ID: ch.Id}
	if ch.Snippet != nil {
		info.Title = ch.Snippet.Title
	}
	if s := ch.Statistics; s != nil {
		if !s.HiddenSubscriberCount {
			info.Subscribers = toInt64(s.SubscriberCount)
		}
		info.TotalViews = toInt64(s.ViewCount)
		info.VideoCount = toInt64(s.VideoCount)
	}
	return info
}

// videoRecord maps an API video to a raw record. Parts missing from the
// response are left out so normalization reports them.
func videoRecord(v *youtube.Video) domain.RawRecord {
	rec := domain.RawRecord{"id": v.Id}

	if s := v.Snippet; s != nil {
		rec["title"] = s.Title
		rec["published_at"] = s.PublishedAt
		if len(s.Tags) > 0 {
			rec["tags"] = s.Tags
		}
	}
	if cd := v.ContentDetails; cd != nil && cd.Duration != "" {
		rec["duration"] = cd.Duration
	}
	if st := v.Statistics; st != nil {
		rec["views"] = toInt64(st.ViewCount)
		rec["likes"] = toInt64(st.LikeCount)
		rec["comments"] = toInt64(st.CommentCount)
	}
	return rec
}

func toInt64(n uint64) int64 {
	if n > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(n)
}
