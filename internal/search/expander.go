package search

import (
	"strings"

	"github.com/campusbot/campusbot/internal/knowledge"
)

// synonyms maps a query token to canonical related terms appended during
// expansion. Original tokens are always retained so lexical scoring matches
// either form. The table is static and covers the vocabulary of the campus
// Q&A corpus: locations, dining, IT services, academics, roles, transport.
var synonyms = map[string][]string{
	"library":   {"lib", "books", "study", "reading", "research", "bibliothek"},
	"lib":       {"library", "books", "study"},
	"location":  {"where", "building", "address", "find", "room", "directions"},
	"where":     {"location", "building", "address", "find", "directions"},
	"building":  {"structure", "facility", "hall", "block"},
	"room":      {"office", "classroom", "lab", "space", "hall"},
	"munich":    {"münchen", "main", "campus"},
	"garching":  {"research", "campus", "forschungszentrum"},
	"heilbronn": {"bildungscampus", "campus", "chn"},
	"lunch":     {"mensa", "cafeteria", "canteen", "dining", "eat", "food", "meal"},
	"dinner":    {"mensa", "cafeteria", "canteen", "dining", "eat", "food", "meal"},
	"meal":      {"mensa", "cafeteria", "canteen", "dining", "eat", "food"},
	"mensa":     {"cafeteria", "canteen", "dining", "eat", "food", "meal"},
	"cafeteria": {"mensa", "canteen", "dining", "eat", "food"},
	"hungry":    {"mensa", "cafeteria", "food", "dining", "eat", "lunch"},
	"eat":       {"mensa", "cafeteria", "food", "dining", "hungry", "meal"},
	"food":      {"mensa", "cafeteria", "dining", "eat", "meal", "vegetarian"},
	"laptop":    {"computer", "equipment", "borrow", "device", "notebook"},
	"computer":  {"laptop", "desktop", "pc", "workstation", "device"},
	"print":     {"printing", "printer", "copy", "scan", "document"},
	"printing":  {"print", "printer", "copy", "scanner", "document"},
	"software":  {"application", "program", "app", "install", "license"},
	"support":   {"help", "assistance", "troubleshoot", "problem", "issue"},
	"help":      {"support", "assistance", "problem", "issue", "guidance"},
	"login":     {"access", "password", "credentials", "authentication"},
	"password":  {"login", "credentials", "authentication", "access"},
	"card":      {"id", "access", "campuscard", "identification"},
	"email":     {"mail", "setup", "configuration", "exchange"},
	"mail":      {"email", "messaging", "correspondence"},
	"wifi":      {"eduroam", "internet", "network", "wireless", "wlan"},
	"eduroam":   {"wifi", "wireless", "internet", "network", "wlan"},
	"internet":  {"wifi", "network", "connection", "online"},
	"network":   {"wifi", "internet", "connection", "eduroam"},
	"vpn":       {"remote", "network", "connection"},
	"course":    {"class", "lecture", "seminar", "module", "program"},
	"class":     {"course", "lecture", "seminar", "lesson"},
	"exam":      {"test", "assessment", "examination", "final"},
	"grade":     {"mark", "score", "result", "transcript"},
	"enroll":    {"register", "matriculate", "admission", "apply"},
	"register":  {"enroll", "registration", "signup", "apply"},
	"thesis":    {"dissertation", "project", "research", "paper"},
	"study":     {"library", "quiet", "space", "room", "learning"},
	"student":   {"undergraduate", "graduate", "bachelor", "master"},
	"professor": {"prof", "faculty", "instructor", "lecturer"},
	"employee":  {"staff", "worker", "personnel", "work"},
	"staff":     {"employee", "worker", "personnel", "faculty"},
	"phd":       {"doctoral", "doctorate", "researcher"},
	"visitor":   {"guest", "external", "visiting", "tour"},
	"housing":   {"accommodation", "dormitory", "apartment", "rent"},
	"sports":    {"fitness", "gym", "recreation", "exercise"},
	"health":    {"medical", "doctor", "wellness", "counseling"},
	"career":    {"job", "internship", "employment", "work"},
	"job":       {"career", "employment", "work", "internship"},
	"visa":      {"permit", "immigration", "international"},
	"payment":   {"fee", "cost", "price", "tuition"},
	"fee":       {"payment", "cost", "charge", "tuition"},
	"transport": {"bus", "train", "parking", "bike", "mvv"},
	"parking":   {"car", "vehicle", "garage", "parkhaus", "lot"},
	"parkhaus":  {"parking", "car", "garage"},
	"bike":      {"bicycle", "cycling", "sharing"},
	"setup":     {"configuration", "install", "wizard"},
	"vacation":  {"leave", "holiday", "absence", "urlaubsantrag"},
	"travel":    {"trip", "conference", "expense", "reimbursement", "dienstreise"},
	"expense":   {"reimbursement", "cost", "payment", "travel"},
	"ethics":    {"committee", "approval", "research", "ethik"},
	"emergency": {"help", "urgent", "problem", "security"},
}

// Expand appends canonical synonyms for every known token in the raw query.
// Unknown tokens pass through untouched; expansion never fails.
func Expand(raw string) string {
	tokens := knowledge.Tokenize(raw)
	if len(tokens) == 0 {
		return raw
	}
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		seen[tok] = struct{}{}
	}
	expanded := make([]string, 0, 8)
	for _, tok := range tokens {
		for _, syn := range synonyms[tok] {
			if _, ok := seen[syn]; ok {
				continue
			}
			seen[syn] = struct{}{}
			expanded = append(expanded, syn)
		}
	}
	if len(expanded) == 0 {
		return raw
	}
	return raw + " " + strings.Join(expanded, " ")
}
