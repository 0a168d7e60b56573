package atom

import (
	"encoding/xml"
	"strconv"
	"strings"

	"channel-insight-service/internal/domain"
)

// Feed is a YouTube channel Atom feed. Element names are matched by local
// name, so the yt: and media: namespaces need no declaration here.
type Feed struct {
	XMLName   xml.Name `xml:"feed"`
	ChannelID string   `xml:"channelId"`
	Title     string   `xml:"title"`
	Entries   []Entry  `xml:"entry"`
}

// Entry is one uploaded video.
type Entry struct {
	VideoID   string `xml:"videoId"`
	Title     string `xml:"title"`
	Published string `xml:"published"`
	Group     Group  `xml:"group"`
}

// Group is the media:group block of an entry.
type Group struct {
	Description string    `xml:"description"`
	Community   Community `xml:"community"`
}

// Community carries the public counters exposed by the feed.
type Community struct {
	StarRating StarRating `xml:"starRating"`
	Statistics Statistics `xml:"statistics"`
}

// StarRating count is the like count.
type StarRating struct {
	Count string `xml:"count,attr"`
}

// Statistics holds the view counter.
type Statistics struct {
	Views string `xml:"views,attr"`
}

// ToRecord converts an entry to a raw record. The feed has no duration or
// comment count, so those fields are left out and normalization reports them.
func (e *Entry) ToRecord() domain.RawRecord {
	rec := domain.RawRecord{
		"id":           e.VideoID,
		"title":        strings.TrimSpace(e.Title),
		"published_at": e.Published,
	}
	if v := e.Group.Community.Statistics.Views; v != "" {
		rec["views"] = counter(v)
	}
	if v := e.Group.Community.StarRating.Count; v != "" {
		rec["likes"] = counter(v)
	}
	return rec
}

// counter keeps unparsable values as strings so the warning carries them.
func counter(s string) any {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return s
	}
	return n
}

// ToChannelInfo converts feed metadata to domain.ChannelInfo. The feed does
// not expose subscriber or total view counts.
func (f *Feed) ToChannelInfo(fallbackID string) domain.ChannelInfo {
	id := f.ChannelID
	if id == "" {
		id = fallbackID
	}
	return domain.ChannelInfo{
		ID:         id,
		Title:      strings.TrimSpace(f.Title),
		VideoCount: int64(len(f.Entries)),
	}
}
