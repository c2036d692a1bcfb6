package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
	"github.com/punchamoorthee/ledgerbook/internal/logger"
	"github.com/punchamoorthee/ledgerbook/internal/models"
)

// Config holds the benchmark settings
var (
	targetURL     string
	concurrency   int
	duration      time.Duration
	workload      string
	totalAccounts int
	replayRate    float64
)

// Metrics
var (
	totalRequests uint64
	success200    uint64 // Idempotent replays
	success201    uint64 // Created
	fail409       uint64 // In-progress conflicts
	fail422       uint64 // Insufficient balance
	failOther     uint64
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.StringVar(&workload, "workload", "uniform", "Workload type: uniform | hotspot")
	flag.IntVar(&totalAccounts, "accounts", 200, "Accounts to target (IDs 1..n, see cmd/seeder)")
	flag.Float64Var(&replayRate, "replay", 0.05, "Share of requests that resend the previous Idempotency-Key")
}

func main() {
	flag.Parse()

	logg, err := logger.New("development", "info")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logg.Sync()

	logg.Info("Starting Benchmark",
		zap.String("workload", workload),
		zap.Int("workers", concurrency),
		zap.Duration("duration", duration))

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, start, rand.New(rand.NewSource(int64(i)+start.UnixNano())))
	}

	wg.Wait()
	elapsed := time.Since(start)

	broken := verifyAccounts(logg, hotAccounts())
	printResults(elapsed, broken)
	if broken > 0 {
		os.Exit(1)
	}
}

func worker(wg *sync.WaitGroup, start time.Time, rng *rand.Rand) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Second}

	var lastKey string
	var lastBody []byte
	for time.Since(start) < duration {
		key, body := lastKey, lastBody
		if key == "" || rng.Float64() >= replayRate {
			key = uuid.NewString()
			body, _ = json.Marshal(models.RecordTransactionRequest{
				AccountID: pickAccount(rng),
				Amount:    int64(rng.Intn(500)+1) * 100,
				Direction: string(pickDirection(rng)),
				Method:    string(domain.MethodCard),
				Label:     "benchmark",
				Date:      time.Now().Format(domain.DateLayout),
				Time:      time.Now().Format(domain.TimeLayout),
			})
		}
		lastKey, lastBody = key, body

		req, _ := http.NewRequest(http.MethodPost, targetURL+"/api/v1/transactions", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", key)

		resp, err := client.Do(req)
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}

		atomic.AddUint64(&totalRequests, 1)
		switch resp.StatusCode {
		case http.StatusCreated:
			atomic.AddUint64(&success201, 1)
		case http.StatusOK:
			atomic.AddUint64(&success200, 1)
		case http.StatusConflict:
			atomic.AddUint64(&fail409, 1)
		case http.StatusUnprocessableEntity:
			atomic.AddUint64(&fail422, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
		resp.Body.Close()
	}
}

// pickAccount sends 90% of hotspot traffic to accounts 1 and 2.
func pickAccount(rng *rand.Rand) int64 {
	if workload == "hotspot" && rng.Float32() < 0.90 {
		return int64(rng.Intn(2) + 1)
	}
	return int64(rng.Intn(totalAccounts) + 1)
}

// pickDirection favours withdrawals so balances drain and sufficiency checks are exercised.
func pickDirection(rng *rand.Rand) domain.Direction {
	if rng.Intn(3) == 0 {
		return domain.Deposit
	}
	return domain.Withdraw
}

func hotAccounts() []int64 {
	ids := []int64{1, 2}
	for i := 0; i < 8; i++ {
		ids = append(ids, int64(rand.Intn(totalAccounts)+1))
	}
	return ids
}

// verifyAccounts checks that every sampled balance is non-negative and equals the resulting
// balance of its latest transaction. It returns the number of broken accounts.
func verifyAccounts(logg *zap.Logger, ids []int64) int {
	client := &http.Client{Timeout: 10 * time.Second}
	broken := 0
	for _, id := range ids {
		resp, err := client.Get(fmt.Sprintf("%s/api/v1/accounts/%d", targetURL, id))
		if err != nil {
			logg.Warn("verify request failed", zap.Int64("account_id", id), zap.Error(err))
			continue
		}
		var acc models.AccountDetailResponse
		err = json.NewDecoder(resp.Body).Decode(&acc)
		resp.Body.Close()
		if err != nil || resp.StatusCode != http.StatusOK {
			logg.Warn("verify response unusable", zap.Int64("account_id", id), zap.Int("status", resp.StatusCode))
			continue
		}

		want := acc.OpeningBalance
		if n := len(acc.Transactions); n > 0 {
			want = acc.Transactions[n-1].ResultingBalance
		}
		if acc.Balance < 0 || acc.Balance != want {
			broken++
			logg.Error("balance invariant violated",
				zap.Int64("account_id", id),
				zap.Int64("balance", acc.Balance),
				zap.Int64("expected", want))
		}
	}
	return broken
}

func printResults(d time.Duration, broken int) {
	total := atomic.LoadUint64(&totalRequests)
	s201 := atomic.LoadUint64(&success201)
	s200 := atomic.LoadUint64(&success200)
	f409 := atomic.LoadUint64(&fail409)
	f422 := atomic.LoadUint64(&fail422)
	fErr := atomic.LoadUint64(&failOther)

	tps := float64(total) / d.Seconds()
	var rejectRate float64
	if total > 0 {
		rejectRate = float64(f422) / float64(total) * 100
	}

	results := map[string]any{
		"workload":             workload,
		"duration_sec":         d.Seconds(),
		"total_requests":       total,
		"throughput_tps":       tps,
		"success_created":      s201,
		"success_replay":       s200,
		"conflicts":            f409,
		"insufficient_balance": f422,
		"reject_rate_pct":      rejectRate,
		"errors":               fErr,
		"broken_accounts":      broken,
	}

	// Print JSON for the python plotter to consume
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	// Also save to file
	filename := fmt.Sprintf("results_%s.json", workload)
	file, err := os.Create(filename)
	if err != nil {
		return
	}
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
