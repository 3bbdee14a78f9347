package fake

// Seeded returns a fake bridge preloaded with a synthetic app: the
// well-known trust surface plus a couple of classes only the heuristic
// scan can find. Used by dry runs.
func Seeded() *Bridge {
	b := New()

	b.AddClass("javax.net.ssl.SSLContext", map[string][]Method{
		"init": {{Params: []string{
			"[Ljavax.net.ssl.KeyManager;",
			"[Ljavax.net.ssl.TrustManager;",
			"java.security.SecureRandom",
		}}},
	})
	b.AddClass("com.android.org.conscrypt.TrustManagerImpl", map[string][]Method{
		"verifyChain":           {{Params: []string{"java.util.List", "java.util.List", "java.lang.String", "boolean", "[B", "[B"}}},
		"checkTrustedRecursive": {{Params: []string{"[Ljava.security.cert.X509Certificate;", "java.lang.String", "boolean", "java.util.List"}}},
	})
	b.AddClass("okhttp3.CertificatePinner", map[string][]Method{
		"check": {
			{Params: []string{"java.lang.String", "java.util.List"}},
			{Params: []string{"java.lang.String", "[Ljava.security.cert.Certificate;"}},
		},
		"check$okhttp": {{Params: []string{"java.lang.String", "kotlin.jvm.functions.Function0"}}},
	})
	b.AddClass("javax.net.ssl.HttpsURLConnection", map[string][]Method{
		"setDefaultHostnameVerifier": {{Params: []string{"javax.net.ssl.HostnameVerifier"}}},
		"setHostnameVerifier":        {{Params: []string{"javax.net.ssl.HostnameVerifier"}}},
	})
	b.AddClass("android.webkit.WebViewClient", map[string][]Method{
		"onReceivedSslError": {{Params: []string{
			"android.webkit.WebView",
			"android.webkit.SslErrorHandler",
			"android.net.http.SslError",
		}}},
	})

	// Interfaces the implementor constructs against.
	b.AddInterface("javax.net.ssl.X509TrustManager")
	b.AddInterface("javax.net.ssl.HostnameVerifier")

	// Obfuscated app classes only the heuristic phase reaches.
	b.AddClass("com.example.app.CertPinner", map[string][]Method{
		"a":     {{Params: []string{"java.lang.String"}}},
		"check": {{Params: []string{"java.lang.String", "java.util.List"}}},
	})
	b.AddClass("com.example.app.TrustCheckerImpl", map[string][]Method{
		"verify": {{Params: []string{"java.lang.String", "javax.net.ssl.SSLSession"}}},
	})
	b.AddClass("com.example.app.MainActivity", map[string][]Method{
		"onCreate": {{Params: []string{"android.os.Bundle"}}},
	})

	return b
}
