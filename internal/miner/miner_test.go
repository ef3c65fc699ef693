package miner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync/atomic"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/tinytelemetry/logmine/internal/cluster"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func config(t *testing.T, jobs int) Config {
	cfg := DefaultConfig()
	cfg.Jobs = jobs
	cfg.Logger = zaptest.NewLogger(t)
	return cfg
}

func TestRunScenario(t *testing.T) {
	input := "hello 1 y 3\nhello 1 x 3\nabc m n q\n"

	for _, jobs := range []int{1, 4} {
		t.Run(fmt.Sprintf("jobs=%d", jobs), func(t *testing.T) {
			cfg := config(t, jobs)
			cfg.Options = cluster.Options{MaxDist: 0.5, MinMembers: 2}
			cfg.ChunkSize = 1

			res, err := Run(context.Background(), strings.NewReader(input), cfg)
			require.NoError(t, err)
			require.EqualValues(t, 3, res.Lines)
			require.Len(t, res.Clusters, 1)
			require.Equal(t, "2 hello 1 --- 3 ", res.Clusters[0].String())
		})
	}
}

func TestRunMinMembersAppliedAfterReduction(t *testing.T) {
	// Two workers each see one member; only the reduced count passes.
	input := "disk full on node-1\ndisk full on node-2\n"
	cfg := config(t, 2)
	cfg.Options = cluster.Options{MaxDist: 0.5, MinMembers: 2}
	cfg.ChunkSize = 1
	cfg.RefillAttempts = 0

	res, err := Run(context.Background(), strings.NewReader(input), cfg)
	require.NoError(t, err)
	require.Len(t, res.Clusters, 1)
	require.Equal(t, 2, res.Clusters[0].Count)
}

func TestRunFoldsTemplatesWithPlaceholders(t *testing.T) {
	// Whichever worker takes which chunk, the templates "s p ---" and
	// "s q ---" fold to the single-worker result.
	input := "s p k1\ns p k2\ns q k3\ns q k4\n"

	for _, jobs := range []int{1, 2} {
		t.Run(fmt.Sprintf("jobs=%d", jobs), func(t *testing.T) {
			cfg := config(t, jobs)
			cfg.Options = cluster.Options{MaxDist: 0.7, MinMembers: 1}
			cfg.ChunkSize = 2
			cfg.RefillAttempts = 0

			res, err := Run(context.Background(), strings.NewReader(input), cfg)
			require.NoError(t, err)
			require.Len(t, res.Clusters, 1)
			require.Equal(t, "4 s --- ", res.Clusters[0].String())
		})
	}
}

// templatedInput builds lines from templates that are far from each other and
// close within themselves, so the clusters do not depend on how lines are
// split between workers.
func templatedInput(n int) (string, map[string]int) {
	users := []string{"alice", "bob", "carol", "dave"}
	disks := []string{"sda", "sdb", "nvme0n1"}

	rng := rand.New(rand.NewSource(7))
	var sb strings.Builder
	want := map[string]int{}
	for i := 0; i < n; i++ {
		switch rng.Intn(3) {
		case 0:
			fmt.Fprintf(&sb, "user %s logged in from 10.0.%d.%d\n", users[rng.Intn(len(users))], rng.Intn(4), rng.Intn(250))
			want["user --- logged in from --- "]++
		case 1:
			fmt.Fprintf(&sb, "disk usage at %d percent on %s\n", 50+rng.Intn(50), disks[rng.Intn(len(disks))])
			want["disk usage at --- percent on --- "]++
		default:
			fmt.Fprintf(&sb, "connection reset by peer %08x\n", rng.Uint32())
			want["connection reset by peer --- "]++
		}
	}
	return sb.String(), want
}

func shapes(cs []cluster.Cluster) map[string]int {
	out := map[string]int{}
	for _, c := range cs {
		s := c.String()
		// strip the count, keep the template
		out[s[strings.IndexByte(s, ' ')+1:]] += c.Count
	}
	return out
}

func TestRunParallelMatchesSingle(t *testing.T) {
	input, want := templatedInput(5000)

	for _, jobs := range []int{1, 2, 4, 8} {
		t.Run(fmt.Sprintf("jobs=%d", jobs), func(t *testing.T) {
			cfg := config(t, jobs)
			cfg.Options = cluster.Options{MaxDist: 0.6, MinMembers: 2}
			cfg.ChunkSize = 16

			res, err := Run(context.Background(), strings.NewReader(input), cfg)
			require.NoError(t, err)
			require.EqualValues(t, 5000, res.Lines)
			require.Len(t, res.Clusters, 3)
			require.Equal(t, want, shapes(res.Clusters))
		})
	}
}

func TestRunProgress(t *testing.T) {
	input, _ := templatedInput(1234)

	for _, jobs := range []int{1, 3} {
		t.Run(fmt.Sprintf("jobs=%d", jobs), func(t *testing.T) {
			var counter atomic.Int64
			cfg := config(t, jobs)
			cfg.Options.MaxDist = 0.6
			cfg.ChunkSize = 64
			cfg.Progress = &counter

			res, err := Run(context.Background(), strings.NewReader(input), cfg)
			require.NoError(t, err)
			require.EqualValues(t, 1234, res.Lines)
			require.EqualValues(t, 1234, counter.Load())
		})
	}
}

func TestRunReadError(t *testing.T) {
	boom := errors.New("device unplugged")
	input, _ := templatedInput(3000)

	for _, jobs := range []int{1, 4} {
		t.Run(fmt.Sprintf("jobs=%d", jobs), func(t *testing.T) {
			cfg := config(t, jobs)
			cfg.ChunkSize = 8
			r := io.MultiReader(strings.NewReader(input), iotest.ErrReader(boom))

			res, err := Run(context.Background(), r, cfg)
			require.ErrorIs(t, err, boom)
			require.ErrorContains(t, err, "read input")
			require.Nil(t, res.Clusters)
		})
	}
}

func TestRunEmptyInput(t *testing.T) {
	for _, jobs := range []int{1, 4} {
		res, err := Run(context.Background(), strings.NewReader(""), config(t, jobs))
		require.NoError(t, err)
		require.Empty(t, res.Clusters)
		require.Zero(t, res.Lines)
	}
}

func TestRunInvalidSeparator(t *testing.T) {
	cfg := config(t, 1)
	cfg.Separator = "("

	_, err := Run(context.Background(), strings.NewReader("a"), cfg)
	require.ErrorContains(t, err, "invalid split pattern")
}

func TestRunCanceled(t *testing.T) {
	input, _ := templatedInput(2000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, jobs := range []int{1, 4} {
		_, err := Run(ctx, strings.NewReader(input), config(t, jobs))
		require.ErrorIs(t, err, context.Canceled)
	}
}

func TestConfigNormalize(t *testing.T) {
	cfg := Config{RefillAttempts: -3}.normalize()
	require.Positive(t, cfg.Jobs)
	require.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	require.Zero(t, cfg.RefillAttempts)
	require.Equal(t, cluster.DefaultMinMembers, cfg.Options.MinMembers)
	require.NotNil(t, cfg.Logger)
	require.Positive(t, DefaultJobs())
}

func BenchmarkRun(b *testing.B) {
	input, _ := templatedInput(20000)
	for _, jobs := range []int{1, 4} {
		b.Run(fmt.Sprintf("jobs=%d", jobs), func(b *testing.B) {
			cfg := DefaultConfig()
			cfg.Jobs = jobs
			cfg.Options.MaxDist = 0.6
			b.SetBytes(int64(len(input)))
			for i := 0; i < b.N; i++ {
				if _, err := Run(context.Background(), strings.NewReader(input), cfg); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
