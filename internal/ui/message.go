package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/flickx/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgStoreChanged MsgKind = iota
	MsgPageLoaded
	MsgDetailsLoaded
	MsgToggled
	MsgAuthDone
	MsgLikesCleared
)

// storeChangedMsg is the constructor for [MsgStoreChanged]
func storeChangedMsg() Msg {
	return Msg{kind: MsgStoreChanged}
}

// pageLoadedMsg is the constructor for [MsgPageLoaded]
func pageLoadedMsg(view ViewState, err error) Msg {
	return Msg{
		kind: MsgPageLoaded,
		data: struct {
			view ViewState
			err  error
		}{view, err},
	}
}

// detailsLoadedMsg is the constructor for [MsgDetailsLoaded]
func detailsLoadedMsg(details *models.MovieDetails, err error) Msg {
	return Msg{
		kind: MsgDetailsLoaded,
		data: struct {
			details *models.MovieDetails
			err     error
		}{details, err},
	}
}

// toggledMsg is the constructor for [MsgToggled]
func toggledMsg(kind models.MembershipKind, err error) Msg {
	return Msg{
		kind: MsgToggled,
		data: struct {
			kind models.MembershipKind
			err  error
		}{kind, err},
	}
}

// authDoneMsg is the constructor for [MsgAuthDone]
func authDoneMsg(session models.Session, err error) Msg {
	return Msg{
		kind: MsgAuthDone,
		data: struct {
			session models.Session
			err     error
		}{session, err},
	}
}

// likesClearedMsg is the constructor for [MsgLikesCleared]
func likesClearedMsg(err error) Msg {
	return Msg{kind: MsgLikesCleared, data: err}
}
