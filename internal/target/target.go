// Package target defines the descriptors for well-known trust-verification
// and certificate-pinning override points, plus the default table shipped
// with the engine.
package target

import (
	"fmt"
	"strings"
)

// Kind selects the replacement behavior installed over a matched method.
type Kind string

const (
	// ReturnTrue ignores all arguments and returns boolean success. Used
	// for pinning checks expressed as predicates.
	ReturnTrue Kind = "return_true"

	// ReturnInputUnchanged returns the first argument unmodified. Used
	// where the original returns a validated subset of an input chain.
	ReturnInputUnchanged Kind = "return_input"

	// NoOp performs no action. Used for void-contract pinning checks.
	NoOp Kind = "no_op"

	// DelegateWithSubstitutedArg calls through to the original method with
	// one argument replaced by a permissive instance, preserving the
	// original's other side effects.
	DelegateWithSubstitutedArg Kind = "delegate_substitute"

	// InvokeArgMethod calls a method on one of the arguments instead of
	// running the original body. Used for callbacks that must trigger a
	// proceed side effect on their handler argument.
	InvokeArgMethod Kind = "invoke_arg"
)

var kindLabels = map[Kind]string{
	ReturnTrue:                 "return true",
	ReturnInputUnchanged:       "return input unchanged",
	NoOp:                       "no-op",
	DelegateWithSubstitutedArg: "delegate with substituted arg",
	InvokeArgMethod:            "invoke method on arg",
}

// Label returns a human-readable name for the kind.
func (k Kind) Label() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return string(k)
}

// Role names a permissive instance the implementor can build.
type Role string

const (
	// RoleTrustManager is a trust manager that accepts every chain.
	RoleTrustManager Role = "trust_manager"
	// RoleHostnameVerifier is a verifier that accepts every hostname.
	RoleHostnameVerifier Role = "hostname_verifier"
)

// Signature is a method name plus its ordered parameter-type descriptors.
// Two signatures are equal iff name and the full ordered sequence match.
type Signature struct {
	Name   string
	Params []string
}

// Equal reports whether both name and parameter sequence match exactly.
func (s Signature) Equal(o Signature) bool {
	if s.Name != o.Name || len(s.Params) != len(o.Params) {
		return false
	}
	for i := range s.Params {
		if s.Params[i] != o.Params[i] {
			return false
		}
	}
	return true
}

// MatchesParams reports whether the ordered parameter list matches.
func (s Signature) MatchesParams(params []string) bool {
	return s.Equal(Signature{Name: s.Name, Params: params})
}

func (s Signature) String() string {
	return fmt.Sprintf("%s(%s)", s.Name, strings.Join(s.Params, ", "))
}

// Descriptor is one static bypass target: a class, the method signatures to
// patch on it (empty = every overload of Method), and the replacement kind.
// Descriptors are data; they are created once and never mutated.
type Descriptor struct {
	Class string

	// Method is the method name; used when Signatures is empty ("all
	// overloads") and as the shared name of the listed signatures.
	Method string

	// Signatures restricts the patch to exact overloads. Empty means
	// every overload the runtime exposes for Method.
	Signatures []Signature

	Kind Kind

	// SubstituteArg and SubstituteRole configure DelegateWithSubstitutedArg:
	// the argument at SubstituteArg is replaced by the instance for
	// SubstituteRole before delegating.
	SubstituteArg  int
	SubstituteRole Role

	// InvokeArg and InvokeMethod configure InvokeArgMethod.
	InvokeArg    int
	InvokeMethod string

	// Note describes the logical check this target defeats.
	Note string
}

// Description is the target's one-line form used in reports.
func (d Descriptor) Description() string {
	return fmt.Sprintf("%s.%s [%s]", d.Class, d.Method, d.Kind.Label())
}

// Defaults returns the frozen table of well-known override points on the
// Android/JVM trust surface. The slice is freshly allocated per call so
// callers cannot mutate the shipped table.
func Defaults() []Descriptor {
	return []Descriptor{
		{
			Class:  "javax.net.ssl.SSLContext",
			Method: "init",
			Signatures: []Signature{{
				Name: "init",
				Params: []string{
					"[Ljavax.net.ssl.KeyManager;",
					"[Ljavax.net.ssl.TrustManager;",
					"java.security.SecureRandom",
				},
			}},
			Kind:           DelegateWithSubstitutedArg,
			SubstituteArg:  1,
			SubstituteRole: RoleTrustManager,
			Note:           "SSLContext initialization: swap in permissive trust manager",
		},
		{
			Class:  "com.android.org.conscrypt.TrustManagerImpl",
			Method: "verifyChain",
			Kind:   ReturnInputUnchanged,
			Note:   "platform trust-chain verification",
		},
		{
			Class:  "com.android.org.conscrypt.TrustManagerImpl",
			Method: "checkTrustedRecursive",
			Kind:   ReturnInputUnchanged,
			Note:   "platform session-chain verification",
		},
		{
			Class:  "org.conscrypt.TrustManagerImpl",
			Method: "verifyChain",
			Kind:   ReturnInputUnchanged,
			Note:   "unbundled conscrypt trust-chain verification",
		},
		{
			Class:  "org.conscrypt.TrustManagerImpl",
			Method: "checkTrustedRecursive",
			Kind:   ReturnInputUnchanged,
			Note:   "unbundled conscrypt session-chain verification",
		},
		{
			Class:  "okhttp3.CertificatePinner",
			Method: "check",
			Signatures: []Signature{
				{Name: "check", Params: []string{"java.lang.String", "java.util.List"}},
				{Name: "check$okhttp", Params: []string{"java.lang.String", "kotlin.jvm.functions.Function0"}},
			},
			Kind: NoOp,
			Note: "OkHttp3 certificate pinning",
		},
		{
			Class:  "com.squareup.okhttp.CertificatePinner",
			Method: "check",
			Signatures: []Signature{
				{Name: "check", Params: []string{"java.lang.String", "java.util.List"}},
			},
			Kind: NoOp,
			Note: "legacy OkHttp certificate pinning",
		},
		{
			Class:  "com.datatheorem.android.trustkit.pinning.OkHostnameVerifier",
			Method: "verify",
			Kind:   ReturnTrue,
			Note:   "TrustKit hostname verification",
		},
		{
			Class:  "javax.net.ssl.HttpsURLConnection",
			Method: "setDefaultHostnameVerifier",
			Signatures: []Signature{
				{Name: "setDefaultHostnameVerifier", Params: []string{"javax.net.ssl.HostnameVerifier"}},
			},
			Kind:           DelegateWithSubstitutedArg,
			SubstituteArg:  0,
			SubstituteRole: RoleHostnameVerifier,
			Note:           "default hostname verifier setter: install permissive verifier",
		},
		{
			Class:  "javax.net.ssl.HttpsURLConnection",
			Method: "setHostnameVerifier",
			Signatures: []Signature{
				{Name: "setHostnameVerifier", Params: []string{"javax.net.ssl.HostnameVerifier"}},
			},
			Kind:           DelegateWithSubstitutedArg,
			SubstituteArg:  0,
			SubstituteRole: RoleHostnameVerifier,
			Note:           "per-connection hostname verifier setter: install permissive verifier",
		},
		{
			Class:  "android.webkit.WebViewClient",
			Method: "onReceivedSslError",
			Signatures: []Signature{{
				Name: "onReceivedSslError",
				Params: []string{
					"android.webkit.WebView",
					"android.webkit.SslErrorHandler",
					"android.net.http.SslError",
				},
			}},
			Kind:         InvokeArgMethod,
			InvokeArg:    1,
			InvokeMethod: "proceed",
			Note:         "WebView SSL-error callback: proceed instead of cancel",
		},
	}
}
