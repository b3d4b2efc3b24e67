package k8s

import (
	"context"
	"fmt"

	"k8s.io/client-go/discovery"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/tools/clientcmd"
)

// Client talks to the cluster hosting the todolist stack.
type Client struct {
	dynamic   dynamic.Interface
	discovery discovery.DiscoveryInterface
}

// ConnectivityStatus is the outcome of CheckConnectivity.
type ConnectivityStatus struct {
	Connected bool
	Version   string
}

// ClientOption configures NewClient.
type ClientOption func(*clientcmd.ClientConfigLoadingRules)

// WithKubeconfig pins the kubeconfig file instead of $KUBECONFIG and ~/.kube/config.
func WithKubeconfig(path string) ClientOption {
	return func(rules *clientcmd.ClientConfigLoadingRules) {
		rules.ExplicitPath = path
	}
}

// NewClient loads client settings the way kubectl does and falls back to the pod's
// service account when no kubeconfig is found.
func NewClient(opts ...ClientOption) (*Client, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	for _, opt := range opts {
		opt(rules)
	}

	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("loading kubernetes client config: %w", err)
	}

	dyn, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating dynamic client: %w", err)
	}
	disc, err := discovery.NewDiscoveryClientForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating discovery client: %w", err)
	}

	return &Client{dynamic: dyn, discovery: disc}, nil
}

// CheckConnectivity asks the API server for its version. The discovery call takes no
// context, so ctx only short-circuits an already cancelled check.
func (c *Client) CheckConnectivity(ctx context.Context) ConnectivityStatus {
	if ctx.Err() != nil {
		return ConnectivityStatus{}
	}

	info, err := c.discovery.ServerVersion()
	if err != nil {
		return ConnectivityStatus{}
	}
	return ConnectivityStatus{Connected: true, Version: info.GitVersion}
}
