package template

import (
	"bytes"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/yaml"
)

// StackParams configures the full todolist stack.
type StackParams struct {
	Namespace string
	Cluster   ClusterParams
	Pooler    PoolerParams
	App       AppParams
}

// BuildStack returns every object of the stack in apply order: database first, then
// the identity the app needs to read its credentials, then the app itself.
func BuildStack(params StackParams) ([]*unstructured.Unstructured, error) {
	params.Cluster.Namespace = params.Namespace
	params.Pooler.Namespace = params.Namespace
	params.App.Namespace = params.Namespace

	objs := []*unstructured.Unstructured{
		BuildCluster(params.Cluster),
		BuildPooler(params.Pooler),
	}

	typed := []runtime.Object{
		BuildServiceAccount(params.App),
		BuildRole(params.App),
		BuildRoleBinding(params.App),
		BuildDeployment(params.App),
		BuildService(params.App),
	}
	for _, obj := range typed {
		u, err := ToUnstructured(obj)
		if err != nil {
			return nil, err
		}
		objs = append(objs, u)
	}

	return objs, nil
}

// ToUnstructured converts a typed object for use with the dynamic client.
func ToUnstructured(obj runtime.Object) (*unstructured.Unstructured, error) {
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, fmt.Errorf("converting %T: %w", obj, err)
	}
	return &unstructured.Unstructured{Object: content}, nil
}

// RenderYAML renders objs as a multi-document YAML stream.
func RenderYAML(objs []*unstructured.Unstructured) ([]byte, error) {
	var buf bytes.Buffer
	for i, obj := range objs {
		out, err := yaml.Marshal(obj.Object)
		if err != nil {
			return nil, fmt.Errorf("rendering %s %s: %w", obj.GetKind(), obj.GetName(), err)
		}
		if i > 0 {
			buf.WriteString("---\n")
		}
		buf.Write(out)
	}
	return buf.Bytes(), nil
}
