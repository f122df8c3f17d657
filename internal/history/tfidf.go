package history

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"docketbot/internal/domain"
)

type sparseVec = map[int]float64

type subjectIndex struct {
	vocab   map[string]int
	idf     []float64
	docs    []sparseVec
	records []domain.ClassificationRecord
}

func tokenize(s string) []string {
	s = strings.ToLower(s)
	var tokens []string
	var cur strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
		} else {
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

func buildSubjectIndex(records []domain.ClassificationRecord) *subjectIndex {
	vocab := make(map[string]int)
	for _, rec := range records {
		for _, tok := range tokenize(rec.Subject) {
			if _, ok := vocab[tok]; !ok {
				vocab[tok] = len(vocab)
			}
		}
	}

	df := make([]int, len(vocab))
	docs := make([]sparseVec, len(records))
	n := float64(len(records))

	for i, rec := range records {
		tf := make(map[int]int)
		for _, tok := range tokenize(rec.Subject) {
			tf[vocab[tok]]++
		}
		vec := make(sparseVec, len(tf))
		for idx, count := range tf {
			vec[idx] = float64(count)
			df[idx]++
		}
		docs[i] = vec
	}

	idf := make([]float64, len(vocab))
	for i, d := range df {
		if d > 0 {
			idf[i] = math.Log(n/float64(d)) + 1.0
		}
	}
	for _, vec := range docs {
		for idx := range vec {
			vec[idx] *= idf[idx]
		}
	}

	return &subjectIndex{vocab: vocab, idf: idf, docs: docs, records: records}
}

func (idx *subjectIndex) queryVec(query string) sparseVec {
	tf := make(map[int]int)
	for _, tok := range tokenize(query) {
		if i, ok := idx.vocab[tok]; ok {
			tf[i]++
		}
	}
	vec := make(sparseVec, len(tf))
	for i, count := range tf {
		vec[i] = float64(count) * idx.idf[i]
	}
	return vec
}

func (idx *subjectIndex) topK(query string, k int) []domain.ClassificationRecord {
	qvec := idx.queryVec(query)
	if len(qvec) == 0 {
		return nil
	}

	type scored struct {
		index int
		score float64
	}
	var results []scored
	for i, dvec := range idx.docs {
		if sim := cosineSim(qvec, dvec); sim > 0 {
			results = append(results, scored{i, sim})
		}
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].score > results[b].score
	})
	if len(results) > k {
		results = results[:k]
	}
	out := make([]domain.ClassificationRecord, len(results))
	for i, r := range results {
		out[i] = idx.records[r.index]
	}
	return out
}

func cosineSim(a, b sparseVec) float64 {
	var dot, normA, normB float64
	for i, va := range a {
		if vb, ok := b[i]; ok {
			dot += va * vb
		}
		normA += va * va
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
