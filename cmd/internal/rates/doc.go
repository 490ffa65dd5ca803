// Package rates proxies a third-party currency exchange-rate API.
//
// The upstream response is relayed verbatim, status code included, so the
// frontend sees exactly what the provider returned. Only transport failures
// and configuration gaps are translated into local errors.
package rates
