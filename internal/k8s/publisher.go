package k8s

import (
	"context"
	"fmt"
	"log/slog"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

const (
	// ReportTextKey holds the text report in the ConfigMap
	ReportTextKey = "report.txt"
	// ReportJSONKey holds the JSON report in the ConfigMap
	ReportJSONKey = "report.json"

	managedByLabel = "app.kubernetes.io/managed-by"
	managedByValue = "regioncompactor"
)

// Publisher keeps the latest report in a ConfigMap
type Publisher struct {
	clientset kubernetes.Interface
	namespace string
	name      string
}

// NewPublisher creates a publisher writing to namespace/name
func NewPublisher(clientset kubernetes.Interface, namespace, name string) *Publisher {
	if namespace == "" {
		namespace = "default"
	}
	return &Publisher{
		clientset: clientset,
		namespace: namespace,
		name:      name,
	}
}

// Publish creates the ConfigMap or replaces its data
func (p *Publisher) Publish(ctx context.Context, text string, document []byte) error {
	data := map[string]string{ReportTextKey: text}
	if len(document) > 0 {
		data[ReportJSONKey] = string(document)
	}

	configMaps := p.clientset.CoreV1().ConfigMaps(p.namespace)
	existing, err := configMaps.Get(ctx, p.name, metav1.GetOptions{})
	if err != nil && !errors.IsNotFound(err) {
		return fmt.Errorf("failed to get ConfigMap %s/%s: %w", p.namespace, p.name, err)
	}

	if errors.IsNotFound(err) {
		cm := &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{
				Name:      p.name,
				Namespace: p.namespace,
				Labels:    map[string]string{managedByLabel: managedByValue},
			},
			Data: data,
		}
		if _, err := configMaps.Create(ctx, cm, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("failed to create ConfigMap %s/%s: %w", p.namespace, p.name, err)
		}
		slog.Debug("report ConfigMap created", slog.String("namespace", p.namespace), slog.String("name", p.name))
		return nil
	}

	existing.Data = data
	if _, err := configMaps.Update(ctx, existing, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to update ConfigMap %s/%s: %w", p.namespace, p.name, err)
	}
	slog.Debug("report ConfigMap updated", slog.String("namespace", p.namespace), slog.String("name", p.name))
	return nil
}
