package parser

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/trep/internal/model"
)

func block(index, firstLine int, text string) model.Block {
	return model.Block{Index: index, FirstLine: firstLine, Lines: strings.Split(strings.TrimRight(text, "\n"), "\n")}
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		kind    model.ActionKind
		pos     *float64
		wantErr any
	}{
		{name: "start with position", line: "2024-01-01T10:00:00.000000 start 0", kind: model.KindStart, pos: floatPtr(0)},
		{name: "pause with trailing space", line: "2024-01-01T10:30:00.000000 pause ", kind: model.KindPause},
		{name: "end token is finish", line: "2024-01-01T12:00:00.000000 end 20.5", kind: model.KindFinish, pos: floatPtr(20.5)},
		{name: "finish literal", line: "2024-01-01T12:00:00 finish 3", kind: model.KindFinish, pos: floatPtr(3)},
		{name: "bad timestamp", line: "yesterday start 0", wantErr: &InvalidTimestampError{}},
		{name: "unknown kind", line: "2024-01-01T10:00:00.000000 stop 1", wantErr: &InvalidActionError{}},
		{name: "too many fields", line: "2024-01-01T10:00:00.000000 start 1 2", wantErr: &InvalidActionError{}},
		{name: "too few fields", line: "2024-01-01T10:00:00.000000", wantErr: &InvalidActionError{}},
		{name: "bad position", line: "2024-01-01T10:00:00.000000 start None", wantErr: &InvalidActionError{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := ParseAction(tt.line, 7, DefaultEndToken)
			if tt.wantErr != nil {
				require.Error(t, err)
				switch tt.wantErr.(type) {
				case *InvalidTimestampError:
					var target *InvalidTimestampError
					assert.True(t, errors.As(err, &target))
					assert.Equal(t, 7, target.Line)
				case *InvalidActionError:
					var target *InvalidActionError
					assert.True(t, errors.As(err, &target))
					assert.Equal(t, 7, target.Line)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, action.Kind)
			assert.Equal(t, 7, action.Line)
			if tt.pos == nil {
				assert.False(t, action.HasPosition())
			} else {
				require.True(t, action.HasPosition())
				assert.Equal(t, *tt.pos, action.Page())
			}
		})
	}
}

func TestParseTimestampIsZoneFree(t *testing.T) {
	naive, err := ParseTimestamp("2024-03-10T01:30:00.250000")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 1, 30, 0, 250000000, time.UTC), naive)

	zoned, err := ParseTimestamp("2024-03-10T01:30:00+08:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 1, 30, 0, 0, time.UTC), zoned)
}

func TestFormatPosition(t *testing.T) {
	assert.Equal(t, "12.0", FormatPosition(12))
	assert.Equal(t, "12.5", FormatPosition(12.5))
	assert.Equal(t, "-3.0", FormatPosition(-3))
}

func TestParseSessionWithPause(t *testing.T) {
	text := "2024-01-01T10:00:00.000000 start 0\n" +
		"2024-01-01T10:30:00.000000 pause \n" +
		"2024-01-01T10:40:00.000000 resume \n" +
		"2024-01-01T12:00:00.000000 end 20\n"
	s, err := ParseSession(block(1, 4, text), DefaultEndToken)
	require.NoError(t, err)

	assert.Equal(t, 1, s.Index)
	assert.Equal(t, 0.0, s.StartPage())
	assert.Equal(t, 20.0, s.EndPage())
	require.Len(t, s.Pauses, 1)
	assert.Equal(t, 10*time.Minute, s.Pauses[0].Duration())
	assert.Equal(t, 4, s.Start.Line)
	assert.Equal(t, 7, s.End.Line)
}

func TestParseSessionPairsInEncounterOrder(t *testing.T) {
	text := "2024-01-01T10:00:00 start 5\n" +
		"2024-01-01T10:10:00 pause\n" +
		"2024-01-01T10:15:00 resume\n" +
		"2024-01-01T10:20:00 pause\n" +
		"2024-01-01T10:21:00 resume\n" +
		"2024-01-01T11:00:00 end 9\n"
	s, err := ParseSession(block(2, 1, text), DefaultEndToken)
	require.NoError(t, err)
	require.Len(t, s.Pauses, 2)
	assert.Equal(t, 5*time.Minute, s.Pauses[0].Duration())
	assert.Equal(t, time.Minute, s.Pauses[1].Duration())
}

func TestParseSessionSkipsBlankLines(t *testing.T) {
	text := "\n2024-01-01T10:00:00 start 1\n\n2024-01-01T10:05:00 end 2\n"
	s, err := ParseSession(block(1, 10, text), DefaultEndToken)
	require.NoError(t, err)
	assert.Equal(t, 11, s.Start.Line)
	assert.Equal(t, 13, s.End.Line)
}

func TestParseSessionErrors(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		check func(t *testing.T, err error)
	}{
		{
			name: "missing start",
			text: "2024-01-01T10:00:00 pause\n2024-01-01T10:05:00 end 2\n",
			check: func(t *testing.T, err error) {
				var target *MalformedSessionError
				require.True(t, errors.As(err, &target))
				assert.Contains(t, target.Reason, "first action must be start")
			},
		},
		{
			name: "missing finish",
			text: "2024-01-01T10:00:00 start 1\n2024-01-01T10:05:00 pause\n",
			check: func(t *testing.T, err error) {
				var target *MalformedSessionError
				require.True(t, errors.As(err, &target))
				assert.Contains(t, target.Reason, "last action must be finish")
			},
		},
		{
			name: "start only",
			text: "2024-01-01T10:00:00 start 1\n",
			check: func(t *testing.T, err error) {
				var target *MalformedSessionError
				require.True(t, errors.As(err, &target))
				assert.Equal(t, "missing finish", target.Reason)
			},
		},
		{
			name: "odd interior",
			text: "2024-01-01T10:00:00 start 42\n" +
				"2024-01-01T10:05:00 pause\n" +
				"2024-01-01T10:06:00 resume\n" +
				"2024-01-01T10:07:00 pause\n" +
				"2024-01-01T10:09:00 end 50\n",
			check: func(t *testing.T, err error) {
				var target *UnpairedPauseError
				require.True(t, errors.As(err, &target))
				assert.Equal(t, 42.0, target.StartPage)
				assert.Equal(t, 3, target.Interior)
				assert.Contains(t, err.Error(), "start page 42")
			},
		},
		{
			name: "single unpaired pause before finish",
			text: "2024-01-01T10:00:00 start 1\n2024-01-01T10:05:00 pause\n2024-01-01T10:09:00 end 3\n",
			check: func(t *testing.T, err error) {
				var target *UnpairedPauseError
				require.True(t, errors.As(err, &target))
				assert.Equal(t, 1, target.Interior)
			},
		},
		{
			name: "resume before pause",
			text: "2024-01-01T10:00:00 start 1\n" +
				"2024-01-01T10:05:00 resume\n" +
				"2024-01-01T10:06:00 pause\n" +
				"2024-01-01T10:09:00 end 3\n",
			check: func(t *testing.T, err error) {
				var target *MalformedSessionError
				require.True(t, errors.As(err, &target))
				assert.Equal(t, "resume while active", target.Reason)
			},
		},
		{
			name: "nested start",
			text: "2024-01-01T10:00:00 start 1\n" +
				"2024-01-01T10:05:00 start 2\n" +
				"2024-01-01T10:06:00 resume\n" +
				"2024-01-01T10:09:00 end 3\n",
			check: func(t *testing.T, err error) {
				var target *MalformedSessionError
				require.True(t, errors.As(err, &target))
				assert.Equal(t, 2, target.Line)
			},
		},
		{
			name: "bad interior timestamp",
			text: "2024-01-01T10:00:00 start 1\n" +
				"soon pause\n" +
				"2024-01-01T10:06:00 resume\n" +
				"2024-01-01T10:09:00 end 3\n",
			check: func(t *testing.T, err error) {
				var target *InvalidTimestampError
				require.True(t, errors.As(err, &target))
				assert.Equal(t, 2, target.Line)
			},
		},
		{
			name: "start without position",
			text: "2024-01-01T10:00:00 start\n2024-01-01T12:00:00 end 20\n",
			check: func(t *testing.T, err error) {
				var target *MalformedSessionError
				require.True(t, errors.As(err, &target))
				assert.Equal(t, "start without position", target.Reason)
				assert.Equal(t, 3, target.Session)
				assert.Equal(t, 1, target.Line)
			},
		},
		{
			name: "finish without position",
			text: "2024-01-01T10:00:00 start 40\n2024-01-01T12:00:00 end\n",
			check: func(t *testing.T, err error) {
				var target *MalformedSessionError
				require.True(t, errors.As(err, &target))
				assert.Equal(t, "finish without position", target.Reason)
				assert.Equal(t, 3, target.Session)
				assert.Equal(t, 2, target.Line)
			},
		},
		{
			name: "empty",
			text: "\n",
			check: func(t *testing.T, err error) {
				var target *MalformedSessionError
				require.True(t, errors.As(err, &target))
				assert.Equal(t, "empty session", target.Reason)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSession(block(3, 1, tt.text), DefaultEndToken)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestParseSessionsFailsFast(t *testing.T) {
	good := block(1, 1, "2024-01-01T10:00:00 start 1\n2024-01-01T10:05:00 end 2\n")
	bad := block(2, 4, "2024-01-01T11:00:00 start 2\n2024-01-01T11:05:00 pause\n2024-01-01T11:09:00 end 3\n")
	_, err := ParseSessions([]model.Block{good, bad, good}, DefaultEndToken)
	var target *UnpairedPauseError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, 2, target.Session)

	sessions, err := ParseSessions([]model.Block{good, good}, DefaultEndToken)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestReplay(t *testing.T) {
	st, ok := Replay([]model.ActionKind{model.KindStart, model.KindPause})
	assert.True(t, ok)
	assert.Equal(t, Paused, st)

	st, ok = Replay([]model.ActionKind{model.KindStart, model.KindPause, model.KindFinish})
	assert.False(t, ok)
	assert.Equal(t, Paused, st)

	st, ok = Replay([]model.ActionKind{model.KindStart, model.KindFinish, model.KindPause})
	assert.False(t, ok)
	assert.Equal(t, Finished, st)

	st, ok = Replay(nil)
	assert.True(t, ok)
	assert.Equal(t, NotStarted, st)
}

func floatPtr(v float64) *float64 {
	return &v
}
