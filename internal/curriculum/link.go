package curriculum

// linkExercises attaches each exercise to the concept whose name matches its
// concept_name exactly (case-sensitive). A matching sub-concept name also
// receives the exercise; only the first matching sub-concept is considered.
// Exercises that match no concept are dropped without error.
func linkExercises(cur *UnifiedCurriculum, exercises []Exercise) {
	for _, ex := range exercises {
		for i := range cur.Concepts {
			concept := &cur.Concepts[i]
			if concept.Name != ex.ConceptName {
				continue
			}
			concept.Exercises = append(concept.Exercises, ex)
			for j := range concept.SubConcepts {
				if concept.SubConcepts[j].Name == ex.SubConceptName {
					concept.SubConcepts[j].Exercises = append(concept.SubConcepts[j].Exercises, ex)
					break
				}
			}
		}
	}
}
