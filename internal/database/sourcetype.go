package database

import "fmt"

// SourceType enumerates the closed set of supported source item kinds. Each
// maps to its own link table so a resolution only ever writes to the table of
// the item's type.
type SourceType string

const (
	SourceNews        SourceType = "news"
	SourceTweet       SourceType = "tweet"
	SourceRedditPost  SourceType = "reddit_post"
	SourceWikimedia   SourceType = "wikimedia"
	SourceStockTwits  SourceType = "stocktwits"
	SourceSECFiling   SourceType = "sec_filing"
	SourceCHFiling    SourceType = "ch_filing"
	SourceUSPTOPatent SourceType = "uspto_patent"
	SourceEPOPatent   SourceType = "epo_patent"
)

// SourceTypes lists every supported type, in declaration order.
var SourceTypes = []SourceType{
	SourceNews,
	SourceTweet,
	SourceRedditPost,
	SourceWikimedia,
	SourceStockTwits,
	SourceSECFiling,
	SourceCHFiling,
	SourceUSPTOPatent,
	SourceEPOPatent,
}

// LinkTableSpec names the link table and its source id column for one source
// type. All nine tables share the shape
// (<source_id_column>, asset_id, method, similarity_score, linked_at).
type LinkTableSpec struct {
	Table          string
	SourceIDColumn string
}

// TableSpec resolves the link table for st. The switch is exhaustive over the
// closed set; anything else is ErrUnsupportedSourceType rather than a silent
// fall-through.
func (st SourceType) TableSpec() (LinkTableSpec, error) {
	switch st {
	case SourceNews:
		return LinkTableSpec{Table: "news_asset_links", SourceIDColumn: "news_id"}, nil
	case SourceTweet:
		return LinkTableSpec{Table: "tweet_asset_links", SourceIDColumn: "tweet_id"}, nil
	case SourceRedditPost:
		return LinkTableSpec{Table: "reddit_post_asset_links", SourceIDColumn: "reddit_post_id"}, nil
	case SourceWikimedia:
		return LinkTableSpec{Table: "wikimedia_asset_links", SourceIDColumn: "wikimedia_id"}, nil
	case SourceStockTwits:
		return LinkTableSpec{Table: "stocktwits_asset_links", SourceIDColumn: "stocktwits_id"}, nil
	case SourceSECFiling:
		return LinkTableSpec{Table: "sec_filing_asset_links", SourceIDColumn: "sec_filing_id"}, nil
	case SourceCHFiling:
		return LinkTableSpec{Table: "ch_filing_asset_links", SourceIDColumn: "ch_filing_id"}, nil
	case SourceUSPTOPatent:
		return LinkTableSpec{Table: "uspto_patent_asset_links", SourceIDColumn: "uspto_patent_id"}, nil
	case SourceEPOPatent:
		return LinkTableSpec{Table: "epo_patent_asset_links", SourceIDColumn: "epo_patent_id"}, nil
	default:
		return LinkTableSpec{}, fmt.Errorf("%w: %q", ErrUnsupportedSourceType, string(st))
	}
}

// Valid reports whether st belongs to the closed set.
func (st SourceType) Valid() bool {
	_, err := st.TableSpec()
	return err == nil
}
