package schema

func col(name, typ string) Column { return Column{Name: name, Type: typ} }

func enum(name, typeName string) Column {
	return Column{Name: name, Type: "enum", Enum: typeName}
}

// Default returns the built-in poke schema in import order.
func Default() *Schema {
	return &Schema{Tables: []Table{
		{
			Name: "users",
			Columns: []Column{
				col("id", "integer"),
				col("username", "text"),
				{Name: "password_hash", Type: "text", Format: "bcrypt"},
				enum("grade_level", "grade_level_type"),
				col("active_subjects", "json"),
				col("focus_categories", "json"),
				col("custom_prompt_active", "boolean"),
				col("custom_prompt_text", "text"),
				col("gold", "integer"),
				col("tokens", "integer"),
				col("global_xp", "integer"),
				col("avatar_pokemon_id", "integer"),
				col("created_at", "timestamp"),
			},
			ConflictKey: []string{"id"},
			Serial:      "id",
		},
		{
			Name: "items",
			Columns: []Column{
				col("id", "text"),
				col("name", "text"),
				col("description", "text"),
				col("price", "integer"),
				col("effect_type", "text"),
				col("value", "integer"),
				enum("rarity", "rarity_type"),
				col("image", "text"),
			},
			ConflictKey: []string{"id"},
		},
		{
			Name: "user_pokemon",
			Columns: []Column{
				col("id", "text"),
				col("user_id", "integer"),
				col("tyradex_id", "integer"),
				col("nickname", "text"),
				col("level", "integer"),
				col("current_hp", "integer"),
				col("current_xp", "integer"),
				col("is_team", "boolean"),
				col("obtained_at", "timestamp"),
			},
			ConflictKey: []string{"id"},
		},
		{
			Name: "inventory",
			Columns: []Column{
				col("user_id", "integer"),
				col("item_id", "text"),
				col("quantity", "integer"),
			},
			ConflictKey: []string{"user_id", "item_id"},
		},
		{
			Name: "question_bank",
			Columns: []Column{
				col("id", "integer"),
				col("subject", "text"),
				enum("grade_level", "grade_level_type"),
				enum("difficulty", "difficulty_type"),
				col("category", "text"),
				col("question_text", "text"),
				col("options_json", "json"),
				col("correct_index", "integer"),
				col("explanation", "text"),
				col("source_override", "text"),
			},
			ConflictKey: []string{"id"},
			Serial:      "id",
		},
		{
			Name: "online_players",
			Columns: []Column{
				col("user_id", "integer"),
				enum("status", "online_status_type"),
				col("last_seen", "timestamp"),
			},
			ConflictKey: []string{"user_id"},
		},
		{
			Name: "pvp_challenges",
			Columns: []Column{
				col("id", "integer"),
				col("challenger_id", "integer"),
				col("challenged_id", "integer"),
				enum("status", "challenge_status_type"),
				col("challenger_team", "json"),
				col("created_at", "timestamp"),
			},
			ConflictKey: []string{"id"},
			Serial:      "id",
		},
		{
			Name: "pvp_matches",
			Columns: []Column{
				col("id", "integer"),
				col("player1_id", "integer"),
				col("player2_id", "integer"),
				enum("status", "match_status_type"),
				col("current_turn", "integer"),
				col("current_question_id", "integer"),
				col("winner_id", "integer"),
				col("player1_team", "json"),
				col("player2_team", "json"),
				col("player1_team_hp", "json"),
				col("player2_team_hp", "json"),
				col("player1_active_pokemon", "integer"),
				col("player2_active_pokemon", "integer"),
				col("xp_reward", "integer"),
				col("waiting_for_answer", "boolean"),
				col("created_at", "timestamp"),
				col("ended_at", "timestamp"),
			},
			ConflictKey: []string{"id"},
			Serial:      "id",
		},
		{
			Name: "pvp_turns",
			Columns: []Column{
				col("id", "integer"),
				col("match_id", "integer"),
				col("player_id", "integer"),
				col("turn_number", "integer"),
				col("question_id", "integer"),
				col("answer_index", "integer"),
				col("is_correct", "boolean"),
				col("damage_dealt", "integer"),
				col("question_text", "text"),
				col("question_options", "json"),
				col("correct_index", "integer"),
				col("target_pokemon_index", "integer"),
				col("created_at", "timestamp"),
			},
			ConflictKey: []string{"id"},
			Serial:      "id",
		},
	}}
}
