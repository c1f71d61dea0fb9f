package render

import (
	"slices"

	"github.com/preston-bernstein/bracket-live-service/internal/domain/bracket"
	"github.com/preston-bernstein/bracket-live-service/internal/layout"
)

// ErrorKind classifies why a snapshot could not be shown.
type ErrorKind string

const (
	ErrorNotFound    ErrorKind = "not_found"
	ErrorServer      ErrorKind = "server_error"
	ErrorMalformed   ErrorKind = "malformed"
	ErrorUnavailable ErrorKind = "unavailable"
)

var errorMessages = map[ErrorKind]string{
	ErrorNotFound:    "대진표를 찾을 수 없습니다.",
	ErrorServer:      "대진표 로드 실패: 서버 오류가 발생했습니다.",
	ErrorMalformed:   "대진표 로드 실패: 데이터 형식이 올바르지 않습니다.",
	ErrorUnavailable: "대진표 로드 실패",
}

// EmptyMessage is shown when the tournament has no main bracket yet.
const EmptyMessage = "본선 대진표가 없습니다."

// ErrorMessage returns the user-facing text for kind.
func ErrorMessage(kind ErrorKind) string {
	if msg, ok := errorMessages[kind]; ok {
		return msg
	}
	return errorMessages[ErrorUnavailable]
}

// Status is the live connection badge state.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusConnecting   Status = "connecting"
	StatusDisconnected Status = "disconnected"
	StatusOff          Status = "off"
)

// View is everything the page and SVG templates read.
type View struct {
	TournamentID string
	Layout       *bracket.Layout
	Scene        layout.Scene
	Highlight    []string
	Cards        []bracket.MatchCard
	DialogOpen   bool
	Tables       []bracket.Table
	Status       Status
	Error        ErrorKind
	Version      int64
	Viewport     layout.Size
}

// Empty reports whether the page should show the no-bracket state.
func (v View) Empty() bool {
	return v.Error == "" && v.Layout == nil
}

// EmptyText is the no-bracket message.
func (v View) EmptyText() string {
	return EmptyMessage
}

// BoxView is a placed match with its highlight flags resolved.
type BoxView struct {
	layout.Box
	Highlight1 bool
	Highlight2 bool
}

// Boxes returns the placed matches of the scene ready for templating.
func (v View) Boxes() []BoxView {
	out := make([]BoxView, len(v.Scene.Geometry.Boxes))
	for i, b := range v.Scene.Geometry.Boxes {
		out[i] = BoxView{
			Box:        b,
			Highlight1: !b.Match.Participant1.IsBye() && v.Highlighted(b.Match.Participant1.Name),
			Highlight2: !b.Match.Participant2.IsBye() && v.Highlighted(b.Match.Participant2.Name),
		}
	}
	return out
}

// Highlighted reports whether name is one of the highlighted participants.
func (v View) Highlighted(name string) bool {
	return slices.Contains(v.Highlight, name)
}

// ErrorText returns the message for the view's fetch error.
func (v View) ErrorText() string {
	return ErrorMessage(v.Error)
}

// StatusLabel returns the badge text.
func (v View) StatusLabel() string {
	switch v.Status {
	case StatusConnected:
		return "🟢 실시간 연결"
	case StatusConnecting:
		return "🟡 연결 중"
	case StatusOff:
		return ""
	default:
		return "🔴 연결 끊김"
	}
}
