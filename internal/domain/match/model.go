package match

import (
	"strconv"
	"strings"
	"time"
)

const (
	StatusUpcoming = "UPCOMING"
	StatusLive     = "LIVE"
	StatusPaused   = "PAUSED"
	StatusFinished = "FINISHED"
)

// Fixture is one tracked match. The ordinal is assigned at insert,
// never changes, and is never reused even after a fixture is removed.
// Status is stored verbatim as supplied by the reconciler; observed
// provider data can regress (LIVE -> PAUSED -> LIVE, or a FINISHED
// verdict reverting), so transitions are timestamped, not validated.
type Fixture struct {
	Ordinal     int
	Competition string
	HomeTeam    string
	AwayTeam    string
	HomeCrest   string
	AwayCrest   string
	KickoffUTC  time.Time
	Status      string
	HomeScore   *int
	AwayScore   *int
	UpdatedAt   time.Time
}

// Candidate is a feed record offered to the store for insertion.
type Candidate struct {
	Competition string
	HomeTeam    string
	AwayTeam    string
	HomeCrest   string
	AwayCrest   string
	KickoffUTC  time.Time
}

// DedupKey identifies a fixture by its participants and kickoff
// instant. The provider does not preserve a stable external id across
// endpoints, so the tuple is the only reliable identity.
func (c Candidate) DedupKey() string {
	return DedupKey(c.HomeTeam, c.AwayTeam, c.KickoffUTC)
}

func (f Fixture) DedupKey() string {
	return DedupKey(f.HomeTeam, f.AwayTeam, f.KickoffUTC)
}

func DedupKey(home, away string, kickoff time.Time) string {
	return NormalizeTeamName(home) + "|" + NormalizeTeamName(away) + "|" + strconv.FormatInt(kickoff.UTC().Unix(), 10)
}

// NormalizeTeamName lowercases and strips everything but letters and
// digits so that "Man United FC" and "man  united-fc" compare equal.
func NormalizeTeamName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusUpcoming
	}
	return status
}

// IsLockedStatus reports whether predictions against the fixture are
// closed. IN_PLAY is the raw provider spelling of LIVE.
func IsLockedStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusLive, StatusPaused, "IN_PLAY", "HALFTIME":
		return true
	default:
		return false
	}
}

func IsLiveStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusLive, "IN_PLAY":
		return true
	default:
		return false
	}
}

func IsPausedStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusPaused, "HALFTIME":
		return true
	default:
		return false
	}
}

func IsFinishedStatus(status string) bool {
	return NormalizeStatus(status) == StatusFinished
}
