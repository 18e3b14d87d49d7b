package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Driver de carga da API de pedidos: semeia produtos direto no banco e
// exercita o ciclo create -> update items -> update status -> delete
// via HTTP, medindo latências

type itemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type orderPayload struct {
	Items []itemPayload `json:"items"`
}

type orderResponse struct {
	Data struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"data"`
}

type result struct {
	latency time.Duration
	failed  bool
}

func main() {
	apiURL := getEnv("API_URL", "http://localhost:8080")
	iterations := getEnvInt("ITERATIONS", 100)
	concurrency := getEnvInt("CONCURRENCY", 4)

	productIDs, err := seedProducts(concurrency)
	if err != nil {
		log.Fatalf("Failed to seed products: %v", err)
	}
	log.Printf("🌱 Seeded %d products", len(productIDs))

	client := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json")

	results := make(chan result, iterations)
	jobs := make(chan int, iterations)
	for i := 0; i < iterations; i++ {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		productID := productIDs[w%len(productIDs)]
		go func() {
			defer wg.Done()
			for range jobs {
				results <- runCycle(client, productID)
			}
		}()
	}
	wg.Wait()
	close(results)

	report(results, time.Since(start), iterations)
}

// runCycle executa um ciclo completo de vida de um pedido
func runCycle(client *resty.Client, productID string) result {
	start := time.Now()

	var created orderResponse
	resp, err := client.R().
		SetBody(orderPayload{Items: []itemPayload{{ProductID: productID, Quantity: 2}}}).
		SetResult(&created).
		Post("/api/v1/orders")
	if err != nil || resp.IsError() {
		return result{latency: time.Since(start), failed: true}
	}
	orderID := created.Data.ID

	resp, err = client.R().
		SetBody(orderPayload{Items: []itemPayload{{ProductID: productID, Quantity: 5}}}).
		Put("/api/v1/orders/" + orderID)
	if err != nil || resp.IsError() {
		return result{latency: time.Since(start), failed: true}
	}

	resp, err = client.R().
		SetBody(map[string]string{"status": "completed"}).
		Patch("/api/v1/orders/" + orderID + "/status")
	if err != nil || resp.IsError() {
		return result{latency: time.Since(start), failed: true}
	}

	resp, err = client.R().Delete("/api/v1/orders/" + orderID)
	if err != nil || resp.IsError() {
		return result{latency: time.Since(start), failed: true}
	}

	return result{latency: time.Since(start)}
}

// seedProducts insere produtos de teste direto no banco
func seedProducts(count int) ([]string, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("DATABASE_USER", "root"),
		getEnv("DATABASE_PASSWORD", "pass"),
		getEnv("DATABASE_HOST", "localhost"),
		getEnv("DATABASE_PORT", "5432"),
		getEnv("DATABASE_NAME", "orders_db"),
	)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New().String()
		_, err := pool.Exec(ctx, `
			INSERT INTO products (id, name, description, stock_quantity, price)
			VALUES ($1, $2, $3, $4, $5)
		`, id, fmt.Sprintf("benchmark-product-%d", i), "load test product", 1_000_000, 150)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func report(results chan result, elapsed time.Duration, iterations int) {
	var failures int
	var total time.Duration
	var max time.Duration
	for r := range results {
		total += r.latency
		if r.latency > max {
			max = r.latency
		}
		if r.failed {
			failures++
		}
	}

	log.Printf("📊 Cycles: %d | Failures: %d | Elapsed: %s", iterations, failures, elapsed)
	if iterations > failures {
		log.Printf("📊 Avg cycle latency: %s | Max: %s | Throughput: %.1f cycles/s",
			total/time.Duration(iterations), max, float64(iterations)/elapsed.Seconds())
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
