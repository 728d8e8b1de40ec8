package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mrd/internal/models"
	"github.com/desertthunder/mrd/internal/tasks"
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
	MsgQueryDone MsgKind = iota
	MsgDownloadDone
	MsgProgressUpdate
)

type queryDone struct {
	tracks []models.TrackResult
	err    error
}

type downloadDone struct {
	track models.TrackResult
	rec   models.DownloadRecord
	err   error
}

// queryDoneMsg is the constructor for [MsgQueryDone]
func queryDoneMsg(tracks []models.TrackResult, err error) Msg {
	return Msg{kind: MsgQueryDone, data: queryDone{tracks, err}}
}

// downloadDoneMsg is the constructor for [MsgDownloadDone]
func downloadDoneMsg(track models.TrackResult, rec models.DownloadRecord, err error) Msg {
	return Msg{kind: MsgDownloadDone, data: downloadDone{track, rec, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}
