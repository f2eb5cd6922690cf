package content

import (
	"encoding/json"
	"testing"

	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demandsignal/telemetry/analytics"
)

func TestResolveBidderRequestWins(t *testing.T) {
	event := &analytics.AuctionEndEvent{
		BidderRequests: []json.RawMessage{
			json.RawMessage(`{"bidderCode":"appnexus"}`),
			json.RawMessage(`{"ortb2":{"site":{"content":{"language":"en","kwarray":["news","sports"]}}}}`),
			json.RawMessage(`{"ortb2":{"site":{"content":{"language":"fr"}}}}`),
		},
		Content: json.RawMessage(`{"language":"de"}`),
	}

	ctx := Resolve(event, &openrtb2.Content{Language: "es"})
	require.NotNil(t, ctx)
	assert.Equal(t, "en", ctx.Language)
	assert.Equal(t, []string{"news", "sports"}, ctx.Keywords)
	assert.Equal(t, SourceBidderRequest, ctx.Source)
}

func TestResolveFallsBackToEventContent(t *testing.T) {
	event := &analytics.AuctionEndEvent{
		BidderRequests: []json.RawMessage{
			json.RawMessage(`{"ortb2":{"site":{}}}`),
		},
		Content: json.RawMessage(`{"keywords":"travel, food ,"}`),
	}

	ctx := Resolve(event, nil)
	require.NotNil(t, ctx)
	assert.Empty(t, ctx.Language)
	assert.Equal(t, []string{"travel", "food"}, ctx.Keywords)
	assert.Equal(t, SourceAuctionEnd, ctx.Source)
}

func TestResolveFallsBackToPersisted(t *testing.T) {
	ctx := Resolve(&analytics.AuctionEndEvent{}, &openrtb2.Content{Language: "es"})
	require.NotNil(t, ctx)
	assert.Equal(t, "es", ctx.Language)
	assert.Equal(t, SourceConfig, ctx.Source)

	ctx = Resolve(nil, &openrtb2.Content{Keywords: "music"})
	require.NotNil(t, ctx)
	assert.Equal(t, []string{"music"}, ctx.Keywords)
}

func TestResolveNothingAvailable(t *testing.T) {
	assert.Nil(t, Resolve(nil, nil))
	assert.Nil(t, Resolve(&analytics.AuctionEndEvent{}, nil))
	assert.Nil(t, Resolve(&analytics.AuctionEndEvent{}, &openrtb2.Content{}))
	assert.Nil(t, Resolve(&analytics.AuctionEndEvent{
		Content: json.RawMessage(`{"title":"no language or keywords"}`),
	}, nil))
}

func TestResolveToleratesMalformedStructures(t *testing.T) {
	event := &analytics.AuctionEndEvent{
		BidderRequests: []json.RawMessage{
			json.RawMessage(`not json at all`),
			json.RawMessage(`{"ortb2":"should be an object"}`),
			json.RawMessage(`{"ortb2":{"site":{"content":"also not an object"}}}`),
			json.RawMessage(`{"ortb2":{"site":{"content":{"language":42}}}}`),
			nil,
		},
		Content: json.RawMessage(`{"language":`),
	}

	ctx := Resolve(event, &openrtb2.Content{Language: "pt"})
	require.NotNil(t, ctx)
	assert.Equal(t, "pt", ctx.Language)
	assert.Equal(t, SourceConfig, ctx.Source)
}

func TestSplitKeywordsPrefersKwArray(t *testing.T) {
	c := &openrtb2.Content{Keywords: "a,b", KwArray: []string{"x"}}
	assert.Equal(t, []string{"x"}, splitKeywords(c))
}
