package template

import (
	"fmt"
	"strconv"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

// Probe timings for /health, mirroring the load balancer health check.
const (
	probeTimeoutSeconds = 10
	probePeriodSeconds  = 60
	probeThreshold      = 5

	servicePort          = 80
	defaultContainerPort = 8080
)

// AppParams configures the todolist Deployment and its companions.
type AppParams struct {
	Namespace string
	Image     string
	Replicas  int32
	Port      int32
}

func (p AppParams) withDefaults() AppParams {
	if p.Replicas <= 0 {
		p.Replicas = 1
	}
	if p.Port <= 0 {
		p.Port = defaultContainerPort
	}
	return p
}

// BuildServiceAccount creates the identity the app pods run as.
func BuildServiceAccount(params AppParams) *corev1.ServiceAccount {
	return &corev1.ServiceAccount{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "ServiceAccount"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      AppName,
			Namespace: params.Namespace,
			Labels:    stringLabels("app"),
		},
	}
}

// BuildRole grants read access to the database credentials secret only.
func BuildRole(params AppParams) *rbacv1.Role {
	return &rbacv1.Role{
		TypeMeta: metav1.TypeMeta{APIVersion: "rbac.authorization.k8s.io/v1", Kind: "Role"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      AppName + "-secret-reader",
			Namespace: params.Namespace,
			Labels:    stringLabels("app"),
		},
		Rules: []rbacv1.PolicyRule{{
			APIGroups:     []string{""},
			Resources:     []string{"secrets"},
			ResourceNames: []string{SecretName},
			Verbs:         []string{"get"},
		}},
	}
}

// BuildRoleBinding binds the secret reader role to the app service account.
func BuildRoleBinding(params AppParams) *rbacv1.RoleBinding {
	return &rbacv1.RoleBinding{
		TypeMeta: metav1.TypeMeta{APIVersion: "rbac.authorization.k8s.io/v1", Kind: "RoleBinding"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      AppName + "-secret-reader",
			Namespace: params.Namespace,
			Labels:    stringLabels("app"),
		},
		Subjects: []rbacv1.Subject{{
			Kind:      rbacv1.ServiceAccountKind,
			Name:      AppName,
			Namespace: params.Namespace,
		}},
		RoleRef: rbacv1.RoleRef{
			APIGroup: rbacv1.GroupName,
			Kind:     "Role",
			Name:     AppName + "-secret-reader",
		},
	}
}

// BuildDeployment creates the todolist Deployment running in production mode.
func BuildDeployment(params AppParams) *appsv1.Deployment {
	params = params.withDefaults()
	podLabels := stringLabels("app")

	probe := &corev1.Probe{
		ProbeHandler: corev1.ProbeHandler{
			HTTPGet: &corev1.HTTPGetAction{
				Path: "/health",
				Port: intstr.FromString("http"),
			},
		},
		TimeoutSeconds:   probeTimeoutSeconds,
		PeriodSeconds:    probePeriodSeconds,
		FailureThreshold: probeThreshold,
	}
	readiness := probe.DeepCopy()
	// Kubernetes requires a liveness success threshold of 1.
	readiness.SuccessThreshold = probeThreshold

	return &appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      AppName,
			Namespace: params.Namespace,
			Labels:    podLabels,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &params.Replicas,
			Selector: &metav1.LabelSelector{MatchLabels: podLabels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: podLabels},
				Spec: corev1.PodSpec{
					ServiceAccountName: AppName,
					Containers: []corev1.Container{{
						Name:  AppName,
						Image: params.Image,
						Args:  []string{"serve"},
						Ports: []corev1.ContainerPort{{
							Name:          "http",
							ContainerPort: params.Port,
							Protocol:      corev1.ProtocolTCP,
						}},
						Env: []corev1.EnvVar{
							{Name: "APP_ENV", Value: "production"},
							{Name: "PORT", Value: strconv.Itoa(int(params.Port))},
							{Name: "DB_DRIVER", Value: "postgres"},
							{Name: "SECRET_ID", Value: fmt.Sprintf("%s/%s", params.Namespace, SecretName)},
							// The secret names the cluster's -rw service; connect through the pooler instead.
							{Name: "DB_HOST", Value: PoolerName},
						},
						LivenessProbe:  probe,
						ReadinessProbe: readiness,
					}},
				},
			},
		},
	}
}

// BuildService exposes the Deployment on port 80.
func BuildService(params AppParams) *corev1.Service {
	params = params.withDefaults()

	return &corev1.Service{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      AppName,
			Namespace: params.Namespace,
			Labels:    stringLabels("app"),
		},
		Spec: corev1.ServiceSpec{
			Selector: stringLabels("app"),
			Ports: []corev1.ServicePort{{
				Name:       "http",
				Port:       servicePort,
				TargetPort: intstr.FromString("http"),
				Protocol:   corev1.ProtocolTCP,
			}},
		},
	}
}
