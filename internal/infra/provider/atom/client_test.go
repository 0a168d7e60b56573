package atom

import (
	"context"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"channel-insight-service/internal/domain"
	"channel-insight-service/internal/infra/provider"
)

const (
	testBaseURL  = "https://yt.example.com"
	testEndpoint = testBaseURL + Endpoint
)

func newTestClient() *Client {
	cfg := provider.ClientConfig{
		BaseURL: testBaseURL,
		Timeout: 5 * time.Second,
		Retry: provider.RetryConfig{
			MaxAttempts: 1,
			WaitTime:    10 * time.Millisecond,
			MaxWaitTime: 20 * time.Millisecond,
		},
		CB: provider.CBConfig{
			MaxRequests:  5,
			Interval:     60 * time.Second,
			Timeout:      15 * time.Second,
			FailureRatio: 0.6,
		},
	}
	client := New(cfg, zap.NewNop())

	httpmock.ActivateNonDefault(client.client.GetClient())

	return client
}

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
	<id>yt:channel:UCatom</id>
	<yt:channelId>UCatom</yt:channelId>
	<title>Atom Channel</title>
	<entry>
		<id>yt:video:vid1</id>
		<yt:videoId>vid1</yt:videoId>
		<title>First upload</title>
		<published>2026-03-01T12:00:00+00:00</published>
		<media:group>
			<media:title>First upload</media:title>
			<media:description>desc</media:description>
			<media:community>
				<media:starRating count="120" average="5.00" min="1" max="5"/>
				<media:statistics views="4567"/>
			</media:community>
		</media:group>
	</entry>
	<entry>
		<yt:videoId>vid2</yt:videoId>
		<title>Second upload</title>
		<published>2026-03-08T12:00:00+00:00</published>
		<media:group>
			<media:community>
				<media:starRating count="n/a"/>
				<media:statistics views="99"/>
			</media:community>
		</media:group>
	</entry>
</feed>`

func TestAtom_FetchChannel_Success(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewStringResponder(200, sampleFeed))

	client := newTestClient()
	feed, err := client.FetchChannel(context.Background(), "UCatom")

	require.NoError(t, err)
	assert.Equal(t, "UCatom", feed.Channel.ID)
	assert.Equal(t, "Atom Channel", feed.Channel.Title)
	assert.Equal(t, int64(2), feed.Channel.VideoCount)
	require.Len(t, feed.Records, 2)
	assert.Equal(t, "vid1", feed.Records[0]["id"])
	assert.Equal(t, int64(4567), feed.Records[0]["views"])
	assert.Equal(t, int64(120), feed.Records[0]["likes"])
	assert.Equal(t, "n/a", feed.Records[1]["likes"])

	res := domain.Normalize(feed.Records)
	require.Len(t, res.Metrics, 2)
	assert.Equal(t, int64(0), res.Metrics[1].Likes)

	codes := map[domain.WarningCode]int{}
	for _, w := range res.Warnings {
		codes[w.Code]++
	}
	assert.Equal(t, 1, codes[domain.WarnNonNumeric])
	assert.Positive(t, codes[domain.WarnMissingField], "duration and comments are absent from the feed")
}

func TestAtom_FetchChannel_NotFound(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewStringResponder(404, "not found"))

	client := newTestClient()
	feed, err := client.FetchChannel(context.Background(), "UCmissing")

	require.Error(t, err)
	assert.Nil(t, feed)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAtom_FetchChannel_InvalidXML(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewStringResponder(200, "<feed><entry>"))

	client := newTestClient()
	feed, err := client.FetchChannel(context.Background(), "UCatom")

	require.Error(t, err)
	assert.Nil(t, feed)
	assert.Contains(t, err.Error(), "parsing atom feed")
}

func TestAtom_HealthCheck(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	client := newTestClient()
	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewStringResponder(400, "missing channel_id"))
	assert.NoError(t, client.HealthCheck(context.Background()))

	httpmock.Reset()
	httpmock.RegisterResponder("GET", testEndpoint,
		httpmock.NewStringResponder(502, "bad gateway"))
	assert.Error(t, client.HealthCheck(context.Background()))
}
