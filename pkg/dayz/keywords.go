package dayz

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	queuePrefix       = "lqs"
	maxServerTimeLen  = 8
	keywordsSeparator = ","
)

// ServerStatus is the normalized status of one query.
type ServerStatus struct {
	ServerTime     *string `json:"serverTime,omitempty"`
	PlayersInQueue *uint32 `json:"playersInQueue,omitempty"`
	Players        uint32  `json:"players"`
	MaxPlayers     uint32  `json:"maxPlayers"`
}

// ParseKeywords extracts the server clock and the login queue length from the
// A2S keyword string. DayZ packs them as ad hoc tokens, e.g.
//
//	battleye,no3rd,external,privHive,shard,lqs0,etm3.000000,entm3.000000,12:34
//
// A "lqs<n>" token sets PlayersInQueue; the last one that parses wins and a token
// that does not parse leaves the previous value alone. The first token that holds
// a colon and is at most 8 characters long becomes ServerTime. Players and
// MaxPlayers are left zero for the caller.
func ParseKeywords(keywords *string) (ServerStatus, error) {
	if keywords == nil {
		return ServerStatus{}, ErrKeywordsMissing
	}

	var st ServerStatus
	for _, token := range strings.Split(*keywords, keywordsSeparator) {
		if rest, ok := strings.CutPrefix(token, queuePrefix); ok {
			if n, err := strconv.ParseUint(rest, 10, 32); err == nil {
				q := uint32(n)
				st.PlayersInQueue = &q
			}
			continue
		}

		if st.ServerTime == nil && strings.Contains(token, ":") && utf8.RuneCountInString(token) <= maxServerTimeLen {
			t := token
			st.ServerTime = &t
		}
	}
	return st, nil
}
