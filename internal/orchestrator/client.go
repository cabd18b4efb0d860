package orchestrator

import (
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// ClientConfig controls how the Kubernetes clientset used for leader
// election is built.
type ClientConfig struct {
	// Kubeconfig, if set, is loaded instead of the in-cluster config. Useful
	// for running the standard profile against a cluster from outside it
	// (local development, staging dry-runs).
	Kubeconfig string
}

// newClientset builds a Kubernetes clientset, preferring in-cluster
// configuration (the production path, when the orchestrator runs as a pod)
// and falling back to an explicit kubeconfig file when one is supplied.
func newClientset(cfg ClientConfig) (kubernetes.Interface, error) {
	restCfg, err := buildRestConfig(cfg)
	if err != nil {
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, NewConnectionError("failed to create Kubernetes clientset", err)
	}
	return clientset, nil
}

func buildRestConfig(cfg ClientConfig) (*rest.Config, error) {
	if cfg.Kubeconfig != "" {
		restCfg, err := clientcmd.BuildConfigFromFlags("", cfg.Kubeconfig)
		if err != nil {
			return nil, NewConnectionError("failed to load kubeconfig", err)
		}
		return restCfg, nil
	}

	restCfg, err := rest.InClusterConfig()
	if err != nil {
		return nil, NewConnectionError("failed to load in-cluster config", err)
	}
	return restCfg, nil
}
