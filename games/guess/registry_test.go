package guess

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(codes ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}

func TestRandomCode(t *testing.T) {
	t.Parallel()

	for n := 0; n < 200; n++ {
		code, err := RandomCode()
		require.NoError(t, err)
		require.Len(t, code, CodeLength)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, c), "unexpected %q in %q", c, code)
		}
	}
}

func TestNormalizeCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "AB12C", NormalizeCode("  ab12c\n"))
}

func TestRegistry_CreateReply(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(WithCodeGenerator(sequence("ABCDE")))

	room, out, err := reg.Create("h1", " Hosty ", Config{TotalRounds: 10, Factor: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "ABCDE", room.Code())
	assert.Equal(t, "h1", room.HostID())

	reply, ok := out.Reply.(RoomCreatedMessage)
	require.True(t, ok)
	assert.True(t, reply.IsHost)
	assert.Equal(t, "ABCDE", reply.RoomCode)
	assert.Equal(t, StatusWaiting, reply.Room.Status)
	assert.Equal(t, 0, reply.Room.CurrentRound)
	require.Len(t, reply.Room.Players, 1)
	assert.Equal(t, "Hosty", reply.Room.Players[0].Name)
	assert.Equal(t, 10.0, reply.Room.Players[0].Score)
	assert.True(t, reply.Room.Players[0].IsHost)

	got, err := reg.Get("abcde")
	require.NoError(t, err)
	assert.Same(t, room, got)
}

func TestRegistry_CreateValidation(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()

	testCases := []struct {
		name string
		host string
		cfg  Config
	}{
		{name: "empty name", host: "  ", cfg: Config{TotalRounds: 1, Factor: 0.5}},
		{name: "zero rounds", host: "h", cfg: Config{TotalRounds: 0, Factor: 0.5}},
		{name: "negative rounds", host: "h", cfg: Config{TotalRounds: -3, Factor: 0.5}},
		{name: "nan factor", host: "h", cfg: Config{TotalRounds: 1, Factor: math.NaN()}},
		{name: "huge factor", host: "h", cfg: Config{TotalRounds: 1, Factor: 1e305}},
		{name: "huge negative factor", host: "h", cfg: Config{TotalRounds: 1, Factor: -MaxFactor * 2}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := reg.Create("id", tc.host, tc.cfg)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, "InvalidInput", Code(err))
		})
	}

	assert.Zero(t, reg.Len())
}

func TestRegistry_CollisionRetries(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(WithCodeGenerator(sequence("AAAAA", "AAAAA", "BBBBB")))

	first, _, err := reg.Create("h1", "one", Config{TotalRounds: 1, Factor: 1})
	require.NoError(t, err)
	second, _, err := reg.Create("h2", "two", Config{TotalRounds: 1, Factor: 1})
	require.NoError(t, err)

	assert.Equal(t, "AAAAA", first.Code())
	assert.Equal(t, "BBBBB", second.Code())
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_CodeSpaceExhausted(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(WithCodeGenerator(sequence("ZZZZZ")))

	_, _, err := reg.Create("h1", "one", Config{TotalRounds: 1, Factor: 1})
	require.NoError(t, err)

	_, _, err = reg.Create("h2", "two", Config{TotalRounds: 1, Factor: 1})
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
	assert.Equal(t, "Internal", Code(err))
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_GeneratorError(t *testing.T) {
	t.Parallel()

	boom := errors.New("no entropy")
	reg := NewRegistry(WithCodeGenerator(func() (string, error) { return "", boom }))

	_, _, err := reg.Create("h1", "one", Config{TotalRounds: 1, Factor: 1})
	assert.ErrorIs(t, err, boom)
}

func TestRegistry_GetAndRemove(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(WithCodeGenerator(sequence("QWERT")))

	_, err := reg.Get("QWERT")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Equal(t, "RoomNotFound", Code(err))

	_, _, err = reg.Create("h1", "one", Config{TotalRounds: 1, Factor: 1})
	require.NoError(t, err)

	reg.Remove("qwert")
	reg.Remove("qwert")

	_, err = reg.Get("QWERT")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Zero(t, reg.Len())
}

// Every code comes out of the generator twice, so each create after the
// first collides once before succeeding.
func TestRegistry_ConcurrentCreateUniqueCodes(t *testing.T) {
	t.Parallel()

	codes := make([]string, 0, 128)
	for i := 0; i < 64; i++ {
		code := fmt.Sprintf("C%04d", i)
		codes = append(codes, code, code)
	}
	reg := NewRegistry(WithCodeGenerator(sequence(codes...)))

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := map[string]int{}

	for i := 0; i < 64; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			room, _, err := reg.Create(fmt.Sprintf("h%d", i), "host", Config{TotalRounds: 1, Factor: 1})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[room.Code()]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 64)
	for code, n := range seen {
		assert.Equal(t, 1, n, code)
	}
	assert.Equal(t, 64, reg.Len())
}

func TestRegistry_Idle(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	reg := NewRegistry(WithClock(clock), WithCodeGenerator(sequence("OLD00", "NEW00")))

	_, _, err := reg.Create("h1", "one", Config{TotalRounds: 1, Factor: 1})
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, _, err = reg.Create("h2", "two", Config{TotalRounds: 1, Factor: 1})
	require.NoError(t, err)

	assert.Equal(t, []string{"OLD00"}, reg.Idle(now.Add(-30*time.Minute)))
	assert.Empty(t, reg.Idle(now.Add(-2*time.Hour)))
}

func TestRegistry_Logger(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var lines []string
	reg := NewRegistry(
		WithCodeGenerator(sequence("LOGGD")),
		WithLogger(func(format string, args ...any) {
			mu.Lock()
			defer mu.Unlock()
			lines = append(lines, fmt.Sprintf(format, args...))
		}),
	)

	room, _, err := reg.Create("h1", "one", Config{TotalRounds: 1, Factor: 1})
	require.NoError(t, err)
	_, err = room.Join("g", "guest")
	require.NoError(t, err)

	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Created room LOGGD")
	assert.Contains(t, lines[1], `Player "guest" joined LOGGD`)
}
