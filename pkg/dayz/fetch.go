package dayz

import (
	"context"

	"github.com/masahide/dayz-monitor/pkg/a2s"
)

// Querier is the query primitive; *a2s.Client implements it.
type Querier interface {
	Info(ctx context.Context, addr string) (*a2s.Info, error)
}

// RetrieveServerInfo performs one query round-trip against addr. Failures of the
// query itself are returned as ErrTransport, a reply without a keyword string as
// ErrKeywordsMissing. There is no retry here; the caller's loop owns that.
func RetrieveServerInfo(ctx context.Context, q Querier, addr string) (ServerStatus, error) {
	info, err := q.Info(ctx, addr)
	if err != nil {
		return ServerStatus{}, &Error{Kind: KindTransport, Err: err}
	}

	var keywords *string
	if info.HasKeywords() {
		keywords = &info.Keywords
	}
	st, err := ParseKeywords(keywords)
	if err != nil {
		return ServerStatus{}, err
	}
	st.Players = uint32(info.Players)
	st.MaxPlayers = uint32(info.MaxPlayers)
	return st, nil
}

// Fetcher binds a Querier to the monitored address.
type Fetcher struct {
	Client Querier
	Addr   string
}

func (f *Fetcher) Fetch(ctx context.Context) (ServerStatus, error) {
	return RetrieveServerInfo(ctx, f.Client, f.Addr)
}
