package model

// Wire types for the solver API.

// NodeIn is a geographic demand node; index 0 is the depot by convention.
type NodeIn struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// SolveRequest carries a full CVRP instance. Optional fields default on the
// server: vehicleCapacity 26, distanceLimit 100000, softDistanceLimit 75% of
// the hard limit, softDistancePenalty 100000, numVehicles = number of
// non-depot demand entries, timeBudgetMs 5000.
type SolveRequest struct {
	Nodes               []NodeIn  `json:"nodes"`
	DistanceMatrix      [][]int64 `json:"distanceMatrix"`
	Demand              []int64   `json:"demand"`
	DepotIndex          int       `json:"depotIndex,omitempty"`
	VehicleCapacity     int64     `json:"vehicleCapacity,omitempty"`
	NumVehicles         int       `json:"numVehicles,omitempty"`
	DistanceLimit       int64     `json:"distanceLimit,omitempty"`
	SoftDistanceLimit   int64     `json:"softDistanceLimit,omitempty"`
	SoftDistancePenalty int64     `json:"softDistancePenalty,omitempty"`
	TimeBudgetMs        int       `json:"timeBudgetMs,omitempty"`
	AllowDrop           bool      `json:"allowDrop,omitempty"`
	DropPenalty         int64     `json:"dropPenalty,omitempty"`
	Seed                int64     `json:"seed,omitempty"`
}

// StopOut mirrors one visited stop, with the cost of the arc arriving at it.
type StopOut struct {
	Node     int     `json:"node"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Demand   int64   `json:"demand"`
	Distance int64   `json:"distance"`
}

// RouteOut is one used vehicle's ordered stop sequence.
type RouteOut struct {
	Vehicle  int       `json:"vehicle"`
	Stops    []StopOut `json:"stops"`
	Load     int64     `json:"load"`
	Distance int64     `json:"distance"`
}

// Job statuses.
const (
	JobSolved     = "solved"
	JobNoSolution = "no_solution"
)

// SolveJob is a persisted solve outcome.
type SolveJob struct {
	ID            string     `json:"id"`
	Status        string     `json:"status"`
	Routes        []RouteOut `json:"routes,omitempty"`
	Dropped       []int      `json:"dropped,omitempty"`
	TotalDistance int64      `json:"totalDistance,omitempty"`
	Objective     int64      `json:"objective,omitempty"`
	ElapsedMs     int64      `json:"elapsedMs"`
	CreatedAt     string     `json:"createdAt"`
}

// SubscriptionRequest registers a webhook for solve lifecycle events.
type SubscriptionRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret"`
}

type Subscription struct {
	ID     string   `json:"id"`
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret,omitempty"`
}
