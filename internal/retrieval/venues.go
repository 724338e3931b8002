// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import "strings"

// venueAliases expands short venue codes to the full names sources report.
// Matching a filter venue against a record considers the code and every
// alias.
var venueAliases = map[string][]string{
	"neurips": {"advances in neural information processing systems", "neural information processing systems", "nips"},
	"nips":    {"advances in neural information processing systems", "neural information processing systems", "neurips"},
	"icml":    {"international conference on machine learning"},
	"iclr":    {"international conference on learning representations"},
	"acl":     {"association for computational linguistics", "annual meeting of the association for computational linguistics"},
	"emnlp":   {"empirical methods in natural language processing"},
	"naacl":   {"north american chapter of the association for computational linguistics", "naacl-hlt"},
	"cvpr":    {"conference on computer vision and pattern recognition"},
	"iccv":    {"international conference on computer vision"},
	"eccv":    {"european conference on computer vision"},
	"aaai":    {"aaai conference on artificial intelligence"},
	"ijcai":   {"international joint conference on artificial intelligence"},
	"kdd":     {"knowledge discovery and data mining", "sigkdd"},
	"sigir":   {"international acm sigir conference"},
	"vldb":    {"very large data bases", "proceedings of the vldb endowment"},
	"sigmod":  {"sigmod international conference on management of data"},
	"www":     {"the web conference", "international world wide web conference"},
	"jmlr":    {"journal of machine learning research"},
	"tpami":   {"ieee transactions on pattern analysis and machine intelligence"},
}

// expandVenue returns the venue plus its known aliases, lowercased.
func expandVenue(venue string) []string {
	lower := strings.ToLower(strings.TrimSpace(venue))
	expanded := []string{lower}
	expanded = append(expanded, venueAliases[lower]...)
	return expanded
}
