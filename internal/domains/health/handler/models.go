package handler

// Info carries the liveness report, the kubernetes fields are empty outside
// the cluster.
type Info struct {
	Status     string `json:"status"`
	Build      string `json:"build"`
	Host       string `json:"host"`
	Name       string `json:"name,omitempty"`
	PodIP      string `json:"podIP,omitempty"`
	Node       string `json:"node,omitempty"`
	Namespace  string `json:"namespace,omitempty"`
	GOMAXPROCS int    `json:"GOMAXPROCS"`
}
