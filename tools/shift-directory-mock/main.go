package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
)

// A stand-in for the shift-assignment directory. Returns the shift ids
// from the SHIFT_IDS env var (comma separated) for every employee/date.
func assignmentsHandler(w http.ResponseWriter, r *http.Request) {
	employeeID := r.URL.Query().Get("employeeId")
	date := r.URL.Query().Get("date")

	var shiftIDs []string
	if raw := os.Getenv("SHIFT_IDS"); raw != "" {
		shiftIDs = strings.Split(raw, ",")
	}

	log.Printf("Assignment lookup for employee %s on %s -> %v", employeeID, date, shiftIDs)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"shiftIds": shiftIDs})
}

func main() {
	http.HandleFunc("/assignments", assignmentsHandler)
	log.Println("Shift directory mock server starting on port 8081...")
	log.Fatal(http.ListenAndServe(":8081", nil))
}
