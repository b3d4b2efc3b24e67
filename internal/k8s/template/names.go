// Package template builds the Kubernetes objects that run the todolist service.
package template

// Resource names shared by the stack.
const (
	AppName       = "todolist"
	ClusterName   = "todolist-db"
	PoolerName    = ClusterName + "-pooler"
	SecretName    = ClusterName + "-app"
	DatabaseName  = "todolist"
	DatabaseOwner = "todolist"
)

// labels returns the labels every object of the stack carries.
func labels(component string) map[string]any {
	return map[string]any{
		"app.kubernetes.io/name":       AppName,
		"app.kubernetes.io/component":  component,
		"app.kubernetes.io/managed-by": "todolist",
	}
}

func stringLabels(component string) map[string]string {
	out := make(map[string]string)
	for k, v := range labels(component) {
		out[k] = v.(string)
	}
	return out
}
