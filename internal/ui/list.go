package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/flickx/internal/models"
)

var _ list.Item = movieItem{}

// movieItem wraps [models.MovieSummary] to implement [list.Item].
type movieItem struct {
	movie  models.MovieSummary
	liked  bool
	wished bool
}

func (i movieItem) FilterValue() string { return i.movie.Title }

func (i movieItem) Title() string {
	var marks []string
	if i.liked {
		marks = append(marks, likeMark)
	}
	if i.wished {
		marks = append(marks, wishMark)
	}
	if len(marks) == 0 {
		return i.movie.Title
	}
	return fmt.Sprintf("%s %s", i.movie.Title, strings.Join(marks, " "))
}

func (i movieItem) Description() string {
	var parts []string
	if i.movie.Year != "" {
		parts = append(parts, string(i.movie.Year))
	}
	if i.movie.Rating != nil {
		parts = append(parts, "★ "+strconv.FormatFloat(*i.movie.Rating, 'f', 1, 64))
	}
	if len(i.movie.Genres) > 0 {
		parts = append(parts, strings.Join(i.movie.Genres, ", "))
	}
	if len(parts) == 0 {
		return i.movie.Overview
	}
	return strings.Join(parts, " • ")
}

func newMovieList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.SetStatusBarItemName("movie", "movies")
	return l
}
