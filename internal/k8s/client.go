package k8s

import (
	"fmt"
	"log/slog"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

const userAgent = "regioncompactor"

// NewClientset connects to the cluster the report is published into. An
// explicit kubeconfig wins; otherwise the in-cluster service account is used
// when running in a pod, then the usual KUBECONFIG / ~/.kube/config chain.
func NewClientset(kubeconfig string) (kubernetes.Interface, error) {
	config, source, err := restConfig(kubeconfig)
	if err != nil {
		return nil, err
	}
	config.UserAgent = userAgent

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	slog.Debug("connected to kubernetes",
		slog.String("host", config.Host),
		slog.String("source", source),
	)
	return clientset, nil
}

func restConfig(kubeconfig string) (*rest.Config, string, error) {
	if kubeconfig == "" {
		if config, err := rest.InClusterConfig(); err == nil {
			return config, "in-cluster", nil
		}
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		rules.ExplicitPath = kubeconfig
	}
	config, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	return config, "kubeconfig", nil
}
