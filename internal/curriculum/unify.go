package curriculum

// unifyConcepts merges per-chunk concept lists into one deduplicated tree.
// Input order matters: concepts must arrive in document order, then
// chunk-within-document order.
//
// Merge contract, reproduced exactly from the legacy generator:
//   - concept descriptions: last write wins
//   - concept examples: appended, duplicates kept
//   - sub-concepts: first write wins, keyed by name
//
// Output preserves first-appearance order for concepts and sub-concepts.
func unifyConcepts(concepts []Concept) UnifiedCurriculum {
	type entry struct {
		concept  Concept
		subOrder []string
		subs     map[string]SubConcept
	}

	var order []string
	index := map[string]*entry{}

	for _, concept := range concepts {
		name := concept.Name
		if name == "" {
			continue
		}
		existing, known := index[name]
		if !known {
			ent := &entry{concept: concept, subs: map[string]SubConcept{}}
			for _, sub := range concept.SubConcepts {
				if sub.Name == "" {
					continue
				}
				if _, seen := ent.subs[sub.Name]; !seen {
					ent.subOrder = append(ent.subOrder, sub.Name)
				}
				ent.subs[sub.Name] = sub
			}
			index[name] = ent
			order = append(order, name)
			continue
		}

		existing.concept.Description = concept.Description
		existing.concept.Examples = append(existing.concept.Examples, concept.Examples...)
		for _, sub := range concept.SubConcepts {
			if sub.Name == "" {
				continue
			}
			if _, seen := existing.subs[sub.Name]; seen {
				continue
			}
			existing.subs[sub.Name] = sub
			existing.subOrder = append(existing.subOrder, sub.Name)
		}
	}

	unified := UnifiedCurriculum{Concepts: make([]Concept, 0, len(order))}
	for _, name := range order {
		ent := index[name]
		ent.concept.SubConcepts = make([]SubConcept, 0, len(ent.subOrder))
		for _, subName := range ent.subOrder {
			ent.concept.SubConcepts = append(ent.concept.SubConcepts, ent.subs[subName])
		}
		unified.Concepts = append(unified.Concepts, ent.concept)
	}
	return unified
}

func conceptNames(cur UnifiedCurriculum) []string {
	names := make([]string, 0, len(cur.Concepts))
	for _, c := range cur.Concepts {
		names = append(names, c.Name)
	}
	return names
}
