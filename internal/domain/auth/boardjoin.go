package auth

import "strings"

// BoardJoinSpec is the parsed form of the DEFAULT_BOARD_ID setting:
// "<boardID>[:flag]*" with flags among isAdmin, isNoComments, isCommentsOnly
// and isWorker. Unknown flags are ignored.
type BoardJoinSpec struct {
	BoardID        string
	IsAdmin        bool
	IsNoComments   bool
	IsCommentsOnly bool
	IsWorker       bool
}

// Enabled reports whether a default board is configured.
func (s BoardJoinSpec) Enabled() bool { return s.BoardID != "" }

// ParseBoardJoinSpec parses the colon-separated default-board setting.
// An empty value yields a disabled spec.
func ParseBoardJoinSpec(raw string) BoardJoinSpec {
	parts := strings.Split(raw, ":")
	spec := BoardJoinSpec{BoardID: strings.TrimSpace(parts[0])}
	for _, flag := range parts[1:] {
		switch strings.TrimSpace(flag) {
		case "isAdmin":
			spec.IsAdmin = true
		case "isNoComments":
			spec.IsNoComments = true
		case "isCommentsOnly":
			spec.IsCommentsOnly = true
		case "isWorker":
			spec.IsWorker = true
		}
	}
	return spec
}
