package broker

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Connection bundles the boundaries the trader talks to.
type Connection struct {
	Feed    PriceFeed
	Gateway OrderGateway
	Account AccountInfo
	History HistorySource // nil when the feed has no history
}

// Connect builds the feed and the order/account side selected by cfg.
func Connect(cfg Config, log logrus.FieldLogger) (*Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var rest *RESTClient
	if cfg.Mode == ModeLive || cfg.Feed == FeedREST {
		rest = NewRESTClient(cfg, log)
	}

	var feed PriceFeed
	switch cfg.Feed {
	case FeedREST:
		feed = rest
	case FeedYahoo:
		feed = NewYahooFeed(cfg.ProxyURL, cfg.Timeout)
	case FeedCSV:
		csvFeed, err := OpenCSVFeed(cfg.CSVPath, cfg.CSVSymbol)
		if err != nil {
			return nil, errors.Wrap(err, "open csv feed")
		}
		feed = csvFeed
	}

	conn := &Connection{}
	// A CSV replay would warm up from its own future rows.
	if hs, ok := feed.(HistorySource); ok && cfg.Feed != FeedCSV {
		conn.History = hs
	}

	if cfg.Mode == ModePaper {
		paper := NewPaperGateway(cfg.PaperBalance)
		conn.Feed = paper.Watch(feed)
		conn.Gateway = paper
		conn.Account = paper
		log.WithFields(logrus.Fields{"feed": feed.Name(), "balance": cfg.PaperBalance}).Info("paper trading enabled")
		return conn, nil
	}

	conn.Feed = feed
	conn.Gateway = rest
	conn.Account = rest
	log.WithFields(logrus.Fields{"feed": feed.Name(), "base_url": cfg.BaseURL}).Info("live trading enabled")
	return conn, nil
}
