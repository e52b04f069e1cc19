package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

type CacheTestResult struct {
	Endpoint     string        `json:"endpoint"`
	CacheStatus  string        `json:"cache_status"`
	ResponseTime time.Duration `json:"response_time"`
	DataSize     int           `json:"data_size"`
	Success      bool          `json:"success"`
	Error        string        `json:"error,omitempty"`
}

type CacheTestSuite struct {
	BaseURL string
	Results []CacheTestResult
}

// Probes the availability cache: each endpoint is hit twice and the second
// request is expected to be served from Redis within its TTL window.
// Performance IDs to probe are passed as command-line arguments.
func main() {
	suite := &CacheTestSuite{
		BaseURL: "http://localhost:8080/api/v1",
		Results: []CacheTestResult{},
	}

	fmt.Println("🧪 Starting Availability Cache Testing...")
	fmt.Println("========================================")

	if err := testRedisConnection(); err != nil {
		log.Fatalf("❌ Redis connection failed: %v", err)
	}
	fmt.Println("✅ Redis connection: OK")

	testCases := []struct {
		name     string
		endpoint string
	}{
		{"Performance List Page 1", "/performances?page=1&limit=10"},
		{"Performance List Page 2", "/performances?page=2&limit=10"},
	}

	for _, id := range os.Args[1:] {
		testCases = append(testCases,
			struct {
				name     string
				endpoint string
			}{
				name:     fmt.Sprintf("Availability %s", id),
				endpoint: fmt.Sprintf("/performances/%s/availability", id),
			})
	}

	for _, tc := range testCases {
		fmt.Printf("\n🔍 Testing: %s\n", tc.name)

		// First request (cache miss)
		result1 := suite.testEndpoint(tc.endpoint, "MISS")
		suite.Results = append(suite.Results, result1)

		// Second request (should be cache hit)
		time.Sleep(100 * time.Millisecond)
		result2 := suite.testEndpoint(tc.endpoint, "HIT")
		suite.Results = append(suite.Results, result2)

		if result1.Success && result2.Success {
			improvement := float64(result1.ResponseTime-result2.ResponseTime) / float64(result1.ResponseTime) * 100
			fmt.Printf("   📈 Performance improvement: %.1f%% (%v -> %v)\n",
				improvement, result1.ResponseTime, result2.ResponseTime)
		}
	}

	suite.generateReport()

	fmt.Println("\n🎉 Availability Cache Testing Complete!")
}

func testRedisConnection() error {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   0,
	})
	defer client.Close()

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	return err
}

func (s *CacheTestSuite) testEndpoint(endpoint, expectedCacheStatus string) CacheTestResult {
	url := s.BaseURL + endpoint

	start := time.Now()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return CacheTestResult{
			Endpoint:    endpoint,
			CacheStatus: "ERROR",
			Success:     false,
			Error:       err.Error(),
		}
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return CacheTestResult{
			Endpoint:     endpoint,
			CacheStatus:  "ERROR",
			ResponseTime: time.Since(start),
			Success:      false,
			Error:        err.Error(),
		}
	}
	defer resp.Body.Close()

	responseTime := time.Since(start)

	body := make([]byte, 0)
	buffer := make([]byte, 1024)
	for {
		n, readErr := resp.Body.Read(buffer)
		if n > 0 {
			body = append(body, buffer[:n]...)
		}
		if readErr != nil {
			break
		}
	}

	// Determine cache status based on response time patterns
	actualCacheStatus := "UNKNOWN"
	if expectedCacheStatus == "MISS" {
		actualCacheStatus = "MISS"
	} else if expectedCacheStatus == "HIT" {
		// Cache hits should be significantly faster
		if responseTime < 50*time.Millisecond {
			actualCacheStatus = "HIT"
		} else {
			actualCacheStatus = "MISS"
		}
	}

	success := resp.StatusCode >= 200 && resp.StatusCode < 400

	result := CacheTestResult{
		Endpoint:     endpoint,
		CacheStatus:  actualCacheStatus,
		ResponseTime: responseTime,
		DataSize:     len(body),
		Success:      success,
	}

	if !success {
		result.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	statusIcon := "✅"
	if !success {
		statusIcon = "❌"
	}

	cacheIcon := "🔥"
	if actualCacheStatus == "MISS" {
		cacheIcon = "💾"
	} else if actualCacheStatus == "UNKNOWN" {
		cacheIcon = "❓"
	}

	fmt.Printf("   %s %s [%s] %v (%d bytes)\n",
		statusIcon, cacheIcon, actualCacheStatus, responseTime, len(body))

	return result
}

func (s *CacheTestSuite) generateReport() {
	fmt.Println("\n📊 CACHE PERFORMANCE REPORT")
	fmt.Println("==========================")

	totalTests := len(s.Results)
	successfulTests := 0
	cacheHits := 0
	cacheMisses := 0
	cacheHitTime := time.Duration(0)
	cacheMissTime := time.Duration(0)

	for _, result := range s.Results {
		if result.Success {
			successfulTests++
		}

		switch result.CacheStatus {
		case "HIT":
			cacheHits++
			cacheHitTime += result.ResponseTime
		case "MISS":
			cacheMisses++
			cacheMissTime += result.ResponseTime
		}
	}

	fmt.Printf("Total Tests: %d\n", totalTests)
	if totalTests > 0 {
		fmt.Printf("Successful: %d (%.1f%%)\n", successfulTests, float64(successfulTests)/float64(totalTests)*100)
	}
	fmt.Printf("Cache Hits: %d\n", cacheHits)
	fmt.Printf("Cache Misses: %d\n", cacheMisses)

	if cacheHits > 0 {
		fmt.Printf("Average Cache Hit Time: %v\n", cacheHitTime/time.Duration(cacheHits))
	}
	if cacheMisses > 0 {
		fmt.Printf("Average Cache Miss Time: %v\n", cacheMissTime/time.Duration(cacheMisses))
	}
	if cacheHits > 0 && cacheMisses > 0 {
		avgHitTime := cacheHitTime / time.Duration(cacheHits)
		avgMissTime := cacheMissTime / time.Duration(cacheMisses)
		improvement := float64(avgMissTime-avgHitTime) / float64(avgMissTime) * 100
		fmt.Printf("Overall Cache Performance Improvement: %.1f%%\n", improvement)
	}

	reportData, err := json.MarshalIndent(map[string]interface{}{
		"summary": map[string]interface{}{
			"total_tests":      totalTests,
			"successful_tests": successfulTests,
			"cache_hits":       cacheHits,
			"cache_misses":     cacheMisses,
		},
		"results": s.Results,
	}, "", "  ")
	if err == nil {
		if writeErr := os.WriteFile("cache_test_results.json", reportData, 0644); writeErr == nil {
			fmt.Println("\n💾 Detailed results saved to cache_test_results.json")
		}
	}
}
