package auction

type CommandType string

const (
	CmdInit           CommandType = "Init"
	CmdJoinCaptain    CommandType = "JoinCaptain"
	CmdLeaveCaptain   CommandType = "LeaveCaptain"
	CmdAddRoster      CommandType = "AddRoster"
	CmdStartRound     CommandType = "StartRound"
	CmdPlaceBid       CommandType = "PlaceBid"
	CmdFinishRound    CommandType = "FinishRound"
	CmdTogglePause    CommandType = "TogglePause"
	CmdRestartAuction CommandType = "RestartAuction"
	CmdUndoLast       CommandType = "UndoLast"
)

// Origin distinguishes a host hitting "finish" from the round timer
// expiring, so a stale firing can be told apart and dropped.
type Origin string

const (
	OriginManual Origin = "manual"
	OriginTimer  Origin = "timer"
)

type Command struct {
	Type  CommandType
	Token string

	HostName string // Init

	TeamID        string  // JoinCaptain
	CaptainName   string  // JoinCaptain
	CaptainPlayer *Player // JoinCaptain

	Players []Player // AddRoster

	Seconds int // StartRound

	Amount int // PlaceBid

	Origin   Origin // FinishRound
	Deadline int64  // FinishRound with OriginTimer: the endsAt it was armed for
}

// Effect is a side effect the caller must carry out after a successful
// transition. The transition itself never touches a timer or the network.
type Effect interface{ isEffect() }

type ArmTimer struct{ EndsAt int64 }

type DisarmTimer struct{}

func (ArmTimer) isEffect()    {}
func (DisarmTimer) isEffect() {}

// Outcome is what a successful Apply hands back besides the mutated room:
// pending effects plus caller-only fields (a freshly minted session token
// is returned to the joining client, never broadcast).
type Outcome struct {
	Effects []Effect
	Token   string
	TeamID  string
}
