package server

import (
	"context"
	"time"
)

// Checker is a connection that can be probed and marks itself connected or
// not as a result
type Checker interface {
	Check(ctx context.Context) bool
}

// Field name   | Mandatory? | Allowed values  | Allowed special characters
// ----------   | ---------- | --------------  | --------------------------
// Seconds      | Yes        | 0-59            | * / , -
// Minutes      | Yes        | 0-59            | * / , -
// Hours        | Yes        | 0-23            | * / , -
// Day of month | Yes        | 1-31            | * / , - ?
// Month        | Yes        | 1-12 or JAN-DEC | * / , -
// Day of week  | Yes        | 0-6 or SUN-SAT  | * / , - ?

func jobs(checkers []Checker) map[string]func() {
	return map[string]func(){
		//SS  MI HH DOM MON DOW
		"*/30 *  *  *   *   *": func() { checkConnections(checkers) }, // Every 30 seconds
	}
}

// checkConnections probes every connection so that one which has gone away is
// no longer used, and one which has come back is used again
func checkConnections(checkers []Checker) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, c := range checkers {
		c.Check(ctx)
	}
}
