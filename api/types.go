package api

// ServiceName identifies this control plane in health responses.
const ServiceName = "socktun"

// ConnectRequest is the body of POST /connect.
type ConnectRequest struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// GenericResponse is the uniform outcome envelope for commands. Internal
// detail never leaks through Message.
type GenericResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StatusResponse mirrors the orchestrator's status projection. Host and
// port are present only while connected.
type StatusResponse struct {
	Connected bool   `json:"connected"`
	State     string `json:"state"`
	Host      string `json:"host,omitempty"`
	Port      int    `json:"port,omitempty"`
}

// HealthResponse answers the unauthenticated health probe.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
