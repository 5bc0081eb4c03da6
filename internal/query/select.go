package query

import "github.com/kbvault/kbvault/internal/types"

// retrieverSelection translates a knowledge base's RetrieverConfig into a
// concrete registry name + params, following the param-key conventions
// the retriever registry's composite factories already expect (hybrid's
// dense_retriever/sparse_retriever/dense_weight/sparse_weight, fusion's
// retrievers/rrf_k, hyde/multi_query's base_retriever).
func retrieverSelection(cfg types.RetrieverConfig) (string, map[string]any) {
	engines := cfg.Engines
	if len(engines) == 0 {
		engines = []string{"dense"}
	}

	base := engines[0]
	params := map[string]any{}

	switch {
	case len(engines) == 1:
		base = engines[0]
	case len(engines) == 2 && containsBoth(engines, "dense", "bm25"):
		base = "hybrid"
		params["dense_retriever"] = "dense"
		params["sparse_retriever"] = "bm25"
	default:
		base = "fusion"
		names := make([]any, len(engines))
		for i, e := range engines {
			names[i] = e
		}
		params["retrievers"] = names
		if cfg.RRFK > 0 {
			params["rrf_k"] = cfg.RRFK
		}
	}

	switch {
	case cfg.HyDE:
		return "hyde", map[string]any{"base_retriever": base}
	case cfg.MultiQuery:
		return "multi_query", map[string]any{"base_retriever": base}
	default:
		return base, params
	}
}

func containsBoth(engines []string, a, b string) bool {
	var sawA, sawB bool
	for _, e := range engines {
		switch e {
		case a:
			sawA = true
		case b:
			sawB = true
		}
	}
	return sawA && sawB
}
